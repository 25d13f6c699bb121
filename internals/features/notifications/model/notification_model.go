package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind       string         `gorm:"size:60;not null;index" json:"kind"` // booking.created, charge.paid, ...
	EntityType string         `gorm:"size:60;not null" json:"entity_type"`
	EntityID   *uuid.UUID     `gorm:"type:uuid" json:"entity_id,omitempty"`
	Title      string         `gorm:"size:200;not null" json:"title"`
	Body       *string        `gorm:"type:text" json:"body,omitempty"`
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
	IsRead     bool           `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
	CreatedAt  time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
