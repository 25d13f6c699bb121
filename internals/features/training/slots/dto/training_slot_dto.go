package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"horseclub_backend/internals/constants"
	"horseclub_backend/internals/features/training/slots/model"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/helpers/dbtime"
)

type CreateSlotRequest struct {
	Date        string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime   string     `json:"start_time" validate:"required"`
	DurationMin int        `json:"duration_min" validate:"required,min=1,max=600"`
	Discipline  string     `json:"discipline" validate:"required,max=60"`
	Capacity    int        `json:"capacity" validate:"min=0,max=100"`
	TrainerID   *uuid.UUID `json:"trainer_id"`
	Status      *string    `json:"status" validate:"omitempty,oneof=open closed cancelled"`
	Notes       *string    `json:"notes"`
}

type UpdateSlotRequest struct {
	Date         *string    `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime    *string    `json:"start_time"`
	DurationMin  *int       `json:"duration_min" validate:"omitempty,min=1,max=600"`
	Discipline   *string    `json:"discipline" validate:"omitempty,min=1,max=60"`
	Capacity     *int       `json:"capacity" validate:"omitempty,min=0,max=100"`
	TrainerID    *uuid.UUID `json:"trainer_id"`
	ClearTrainer bool       `json:"clear_trainer"`
	Status       *string    `json:"status" validate:"omitempty,oneof=open closed cancelled"`
	Notes        *string    `json:"notes"`
}

// SlotResponse: slot + active booking count.
type SlotResponse struct {
	model.TrainingSlot
	BookedCount int64 `gorm:"column:booked_count" json:"booked_count"`
}

func (r CreateSlotRequest) ToModel() (model.TrainingSlot, error) {
	d, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return model.TrainingSlot{}, err
	}
	st, err := dbtime.Parse(r.StartTime)
	if err != nil {
		return model.TrainingSlot{}, err
	}
	m := model.TrainingSlot{
		Date:        d,
		StartTime:   st,
		DurationMin: r.DurationMin,
		Discipline:  helper.NormalizeDiscipline(r.Discipline),
		Capacity:    r.Capacity,
		TrainerID:   r.TrainerID,
		Status:      constants.SlotOpen,
		Notes:       helper.TrimPtr(r.Notes),
	}
	if r.Status != nil {
		m.Status = strings.ToLower(*r.Status)
	}
	return m, nil
}

func (r UpdateSlotRequest) Apply(m *model.TrainingSlot) error {
	if r.Date != nil {
		d, err := time.Parse("2006-01-02", *r.Date)
		if err != nil {
			return err
		}
		m.Date = d
	}
	if r.StartTime != nil {
		st, err := dbtime.Parse(*r.StartTime)
		if err != nil {
			return err
		}
		m.StartTime = st
	}
	if r.DurationMin != nil {
		m.DurationMin = *r.DurationMin
	}
	if r.Discipline != nil {
		m.Discipline = helper.NormalizeDiscipline(*r.Discipline)
	}
	if r.Capacity != nil {
		m.Capacity = *r.Capacity
	}
	if r.ClearTrainer {
		m.TrainerID = nil
	} else if r.TrainerID != nil {
		m.TrainerID = r.TrainerID
	}
	if r.Status != nil {
		m.Status = strings.ToLower(*r.Status)
	}
	if r.Notes != nil {
		m.Notes = helper.TrimPtr(r.Notes)
	}
	return nil
}
