package dto

import (
	"strings"

	"github.com/lib/pq"

	"horseclub_backend/internals/features/club/horses/model"
	helper "horseclub_backend/internals/helpers"
)

type CreateHorseRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Breed       *string  `json:"breed" validate:"omitempty,max=120"`
	BirthYear   *int     `json:"birth_year" validate:"omitempty,min=1950,max=2100"`
	Sex         *string  `json:"sex" validate:"omitempty,oneof=mare gelding stallion"`
	PassportNo  *string  `json:"passport_no" validate:"omitempty,max=60"`
	Microchip   *string  `json:"microchip" validate:"omitempty,max=60"`
	OwnerName   *string  `json:"owner_name" validate:"omitempty,max=150"`
	Disciplines []string `json:"disciplines" validate:"omitempty,dive,required,max=40"`
	IsActive    *bool    `json:"is_active"`
	Note        *string  `json:"note"`
}

// PATCH: nil field = unchanged
type UpdateHorseRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=120"`
	Breed       *string   `json:"breed" validate:"omitempty,max=120"`
	BirthYear   *int      `json:"birth_year" validate:"omitempty,min=1950,max=2100"`
	Sex         *string   `json:"sex" validate:"omitempty,oneof=mare gelding stallion"`
	PassportNo  *string   `json:"passport_no" validate:"omitempty,max=60"`
	Microchip   *string   `json:"microchip" validate:"omitempty,max=60"`
	OwnerName   *string   `json:"owner_name" validate:"omitempty,max=150"`
	Disciplines *[]string `json:"disciplines" validate:"omitempty,dive,required,max=40"`
	IsActive    *bool     `json:"is_active"`
	Note        *string   `json:"note"`
}

func (r CreateHorseRequest) ToModel() model.HorseModel {
	m := model.HorseModel{
		Name:        strings.TrimSpace(r.Name),
		Breed:       helper.TrimPtr(r.Breed),
		BirthYear:   r.BirthYear,
		Sex:         helper.TrimPtr(r.Sex),
		PassportNo:  helper.TrimPtr(r.PassportNo),
		Microchip:   helper.TrimPtr(r.Microchip),
		OwnerName:   helper.TrimPtr(r.OwnerName),
		Disciplines: pq.StringArray(helper.NormalizeDisciplines(r.Disciplines)),
		IsActive:    true,
		Note:        helper.TrimPtr(r.Note),
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	return m
}

// Apply writes the changes to the model. An empty string clears an optional column.
func (r UpdateHorseRequest) Apply(m *model.HorseModel) {
	if r.Name != nil {
		m.Name = strings.TrimSpace(*r.Name)
	}
	if r.Breed != nil {
		m.Breed = helper.TrimPtr(r.Breed)
	}
	if r.BirthYear != nil {
		m.BirthYear = r.BirthYear
	}
	if r.Sex != nil {
		m.Sex = helper.TrimPtr(r.Sex)
	}
	if r.PassportNo != nil {
		m.PassportNo = helper.TrimPtr(r.PassportNo)
	}
	if r.Microchip != nil {
		m.Microchip = helper.TrimPtr(r.Microchip)
	}
	if r.OwnerName != nil {
		m.OwnerName = helper.TrimPtr(r.OwnerName)
	}
	if r.Disciplines != nil {
		m.Disciplines = pq.StringArray(helper.NormalizeDisciplines(*r.Disciplines))
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.Note != nil {
		m.Note = helper.TrimPtr(r.Note)
	}
}
