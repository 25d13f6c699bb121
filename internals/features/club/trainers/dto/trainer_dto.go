package dto

import (
	"strings"

	"github.com/lib/pq"

	"horseclub_backend/internals/features/club/trainers/model"
	helper "horseclub_backend/internals/helpers"
)

type CreateTrainerRequest struct {
	FullName    string   `json:"full_name" validate:"required,max=150"`
	Email       *string  `json:"email" validate:"omitempty,email,max=255"`
	Phone       *string  `json:"phone" validate:"omitempty,max=40"`
	Disciplines []string `json:"disciplines" validate:"omitempty,dive,required,max=40"`
	IsActive    *bool    `json:"is_active"`
}

type UpdateTrainerRequest struct {
	FullName    *string   `json:"full_name" validate:"omitempty,min=1,max=150"`
	Email       *string   `json:"email" validate:"omitempty,max=255"`
	Phone       *string   `json:"phone" validate:"omitempty,max=40"`
	Disciplines *[]string `json:"disciplines" validate:"omitempty,dive,required,max=40"`
	IsActive    *bool     `json:"is_active"`
}

func (r CreateTrainerRequest) ToModel() model.TrainerModel {
	m := model.TrainerModel{
		FullName:    strings.TrimSpace(r.FullName),
		Email:       helper.TrimPtr(r.Email),
		Phone:       helper.TrimPtr(r.Phone),
		Disciplines: pq.StringArray(helper.NormalizeDisciplines(r.Disciplines)),
		IsActive:    true,
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	return m
}

func (r UpdateTrainerRequest) Apply(m *model.TrainerModel) {
	if r.FullName != nil {
		m.FullName = strings.TrimSpace(*r.FullName)
	}
	if r.Email != nil {
		m.Email = helper.TrimPtr(r.Email)
	}
	if r.Phone != nil {
		m.Phone = helper.TrimPtr(r.Phone)
	}
	if r.Disciplines != nil {
		m.Disciplines = pq.StringArray(helper.NormalizeDisciplines(*r.Disciplines))
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
}
