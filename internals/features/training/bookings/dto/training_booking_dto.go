package dto

import (
	"time"

	"github.com/google/uuid"

	"horseclub_backend/internals/features/training/bookings/model"
	"horseclub_backend/internals/helpers/dbtime"
)

type CancelBookingRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

type MarkBookingRequest struct {
	Status string `json:"status" validate:"required,oneof=attended no_show"`
}

// BookingListItem: booking + slot summary & participant names for the admin table.
type BookingListItem struct {
	model.TrainingBooking
	SlotDate       time.Time  `gorm:"column:slot_date" json:"slot_date"`
	SlotStartTime  dbtime.Tod `gorm:"column:slot_start_time" json:"slot_start_time"`
	SlotDiscipline string     `gorm:"column:slot_discipline" json:"slot_discipline"`
	SlotTrainerID  *uuid.UUID `gorm:"column:slot_trainer_id" json:"slot_trainer_id,omitempty"`
	HorseName      string     `gorm:"column:horse_name" json:"horse_name"`
	RiderName      string     `gorm:"column:rider_name" json:"rider_name"`
}
