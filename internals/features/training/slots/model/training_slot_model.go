package model

import (
	"time"

	"github.com/google/uuid"

	"horseclub_backend/internals/helpers/dbtime"
)

// TrainingSlot is a bookable time window with a rider capacity.
type TrainingSlot struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Date        time.Time  `gorm:"type:date;not null;index:idx_training_slots_date" json:"date"`
	StartTime   dbtime.Tod `gorm:"type:time;not null" json:"start_time"`
	DurationMin int        `gorm:"not null;check:chk_training_slots_duration,duration_min > 0" json:"duration_min"`
	Discipline  string     `gorm:"size:60;not null" json:"discipline"`
	Capacity    int        `gorm:"not null;check:chk_training_slots_capacity,capacity >= 0" json:"capacity"`
	TrainerID   *uuid.UUID `gorm:"type:uuid;index" json:"trainer_id,omitempty"`
	Status      string     `gorm:"size:20;not null;default:'open'" json:"status"` // open|closed|cancelled
	Notes       *string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TrainingSlot) TableName() string {
	return "training_slots"
}
