package model

import (
	"time"

	"github.com/google/uuid"

	"horseclub_backend/internals/helpers/dbtime"
)

// Training is a session that actually happened; attended bookings produce one
// and keep it linked through SourceBookingID.
type Training struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HorseID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"horse_id"`
	RiderID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"rider_id"`
	TrainerID       *uuid.UUID `gorm:"type:uuid" json:"trainer_id,omitempty"`
	TrainingDate    time.Time  `gorm:"type:date;not null;index" json:"training_date"`
	StartTime       dbtime.Tod `gorm:"type:time;not null" json:"start_time"`
	DurationMin     int        `gorm:"not null" json:"duration_min"`
	Discipline      string     `gorm:"size:60;not null" json:"discipline"`
	Status          string     `gorm:"size:20;not null;default:'completed'" json:"status"`
	SourceBookingID *uuid.UUID `gorm:"type:uuid;uniqueIndex:uq_trainings_source_booking,where:source_booking_id IS NOT NULL" json:"source_booking_id,omitempty"`
	BillingStatus   string     `gorm:"size:20;not null;default:'none'" json:"billing_status"` // none|unpaid|paid|void
	BillingChargeID *uuid.UUID `gorm:"type:uuid" json:"billing_charge_id,omitempty"`
	Note            *string    `gorm:"type:text" json:"note,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Training) TableName() string {
	return "trainings"
}
