package model

import (
	"time"

	"github.com/google/uuid"
)

// TrainingBooking reserves one horse+rider pair on a slot.
// Status only moves forward: booked -> attended | no_show | cancelled.
type TrainingBooking struct {
	ID               uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SlotID           uuid.UUID  `gorm:"type:uuid;not null;index:idx_training_bookings_slot_status,priority:1" json:"slot_id"`
	HorseID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"horse_id"`
	RiderID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"rider_id"`
	Status           string     `gorm:"size:20;not null;default:'booked';index:idx_training_bookings_slot_status,priority:2" json:"status"`
	CreatedByActorID *uuid.UUID `gorm:"type:uuid" json:"created_by_actor_id,omitempty"`
	TrainingID       *uuid.UUID `gorm:"type:uuid" json:"training_id,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CancelReason     *string    `gorm:"type:text" json:"cancel_reason,omitempty"`
	MarkedAt         *time.Time `json:"marked_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TrainingBooking) TableName() string {
	return "training_bookings"
}
