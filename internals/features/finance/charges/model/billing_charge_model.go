package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// BillingCharge: amount is fixed at creation; status unpaid -> paid | void.
type BillingCharge struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TrainingID      *uuid.UUID     `gorm:"type:uuid;uniqueIndex:uq_billing_charges_training,where:training_id IS NOT NULL" json:"training_id,omitempty"`
	BookingID       *uuid.UUID     `gorm:"type:uuid;uniqueIndex:uq_billing_charges_booking,where:booking_id IS NOT NULL" json:"booking_id,omitempty"`
	RiderID         *uuid.UUID     `gorm:"type:uuid;index" json:"rider_id,omitempty"`
	HorseID         *uuid.UUID     `gorm:"type:uuid;index" json:"horse_id,omitempty"`
	AmountCents     int64          `gorm:"not null;check:chk_billing_charges_amount,amount_cents >= 0" json:"amount_cents"`
	Currency        string         `gorm:"size:3;not null" json:"currency"`
	Status          string         `gorm:"size:10;not null;default:'unpaid';index" json:"status"`
	PricingRuleID   *uuid.UUID     `gorm:"type:uuid" json:"pricing_rule_id,omitempty"`
	PaidAt          *time.Time     `gorm:"index" json:"paid_at,omitempty"`
	PaidMethod      *string        `gorm:"size:20" json:"paid_method,omitempty"`
	PaidReference   *string        `gorm:"size:120" json:"paid_reference,omitempty"`
	Note            *string        `gorm:"type:text" json:"note,omitempty"`
	ComputedDetails datatypes.JSON `gorm:"type:jsonb" json:"computed_details,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BillingCharge) TableName() string {
	return "billing_charges"
}
