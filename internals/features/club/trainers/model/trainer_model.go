package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type TrainerModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName    string         `gorm:"size:150;not null" json:"full_name"`
	Email       *string        `gorm:"size:255" json:"email,omitempty"`
	Phone       *string        `gorm:"size:40" json:"phone,omitempty"`
	Disciplines pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"disciplines"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TrainerModel) TableName() string {
	return "trainers"
}
