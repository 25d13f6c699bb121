package dto

import (
	"strings"
	"time"

	"horseclub_backend/internals/features/club/riders/model"
	helper "horseclub_backend/internals/helpers"
)

type CreateRiderRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=80"`
	LastName  string  `json:"last_name" validate:"required,max=80"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=40"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	LicenseNo *string `json:"license_no" validate:"omitempty,max=60"`
	IsActive  *bool   `json:"is_active"`
	Note      *string `json:"note"`
}

type UpdateRiderRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=80"`
	LastName  *string `json:"last_name" validate:"omitempty,min=1,max=80"`
	Email     *string `json:"email" validate:"omitempty,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=40"`
	BirthDate *string `json:"birth_date"`
	LicenseNo *string `json:"license_no" validate:"omitempty,max=60"`
	IsActive  *bool   `json:"is_active"`
	Note      *string `json:"note"`
}

// parseDate: "" → nil
func parseDate(p *string) (*time.Time, error) {
	s := helper.TrimPtr(p)
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func lowerPtr(p *string) *string {
	s := helper.TrimPtr(p)
	if s == nil {
		return nil
	}
	v := strings.ToLower(*s)
	return &v
}

func (r CreateRiderRequest) ToModel() (model.RiderModel, error) {
	bd, err := parseDate(r.BirthDate)
	if err != nil {
		return model.RiderModel{}, err
	}
	m := model.RiderModel{
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Email:     lowerPtr(r.Email),
		Phone:     helper.TrimPtr(r.Phone),
		BirthDate: bd,
		LicenseNo: helper.TrimPtr(r.LicenseNo),
		IsActive:  true,
		Note:      helper.TrimPtr(r.Note),
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	return m, nil
}

func (r UpdateRiderRequest) Apply(m *model.RiderModel) error {
	if r.FirstName != nil {
		m.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		m.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Email != nil {
		m.Email = lowerPtr(r.Email)
	}
	if r.Phone != nil {
		m.Phone = helper.TrimPtr(r.Phone)
	}
	if r.BirthDate != nil {
		bd, err := parseDate(r.BirthDate)
		if err != nil {
			return err
		}
		m.BirthDate = bd
	}
	if r.LicenseNo != nil {
		m.LicenseNo = helper.TrimPtr(r.LicenseNo)
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.Note != nil {
		m.Note = helper.TrimPtr(r.Note)
	}
	return nil
}
