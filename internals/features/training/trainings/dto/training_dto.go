package dto

import (
	"github.com/google/uuid"

	"horseclub_backend/internals/features/training/trainings/model"
	helper "horseclub_backend/internals/helpers"
)

// PatchTrainingRequest: billing_* is owned by billing-charges and cannot be patched.
type PatchTrainingRequest struct {
	Status       *string    `json:"status" validate:"omitempty,oneof=completed planned cancelled"`
	TrainerID    *uuid.UUID `json:"trainer_id"`
	ClearTrainer bool       `json:"clear_trainer"`
	Note         *string    `json:"note" validate:"omitempty,max=2000"`
}

func (r PatchTrainingRequest) Apply(m *model.Training) {
	if r.Status != nil {
		m.Status = *r.Status
	}
	if r.ClearTrainer {
		m.TrainerID = nil
	} else if r.TrainerID != nil {
		m.TrainerID = r.TrainerID
	}
	if r.Note != nil {
		m.Note = helper.TrimPtr(r.Note)
	}
}
