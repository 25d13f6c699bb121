package model

import (
	"time"

	"github.com/google/uuid"
)

// PricingRule: nil filter fields match anything; lower priority wins.
type PricingRule struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string     `gorm:"size:120;not null" json:"name"`
	IsActive        bool       `gorm:"not null;default:true;index" json:"is_active"`
	Priority        int        `gorm:"not null;default:100" json:"priority"`
	Discipline      *string    `gorm:"size:60" json:"discipline,omitempty"`
	MinDurationMin  *int       `json:"min_duration_min,omitempty"`
	MaxDurationMin  *int       `json:"max_duration_min,omitempty"`
	RiderID         *uuid.UUID `gorm:"type:uuid" json:"rider_id,omitempty"`
	HorseID         *uuid.UUID `gorm:"type:uuid" json:"horse_id,omitempty"`
	BaseAmountCents int64      `gorm:"not null;default:0" json:"base_amount_cents"`
	PerMinuteCents  int64      `gorm:"not null;default:0" json:"per_minute_cents"`
	Currency        string     `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PricingRule) TableName() string {
	return "pricing_rules"
}
