package dto

import (
	"strings"

	"github.com/google/uuid"

	"horseclub_backend/internals/features/finance/pricing/model"
	helper "horseclub_backend/internals/helpers"
)

type CreatePricingRuleRequest struct {
	Name            string     `json:"name" validate:"required,max=120"`
	IsActive        *bool      `json:"is_active"`
	Priority        *int       `json:"priority" validate:"omitempty,min=0,max=10000"`
	Discipline      *string    `json:"discipline" validate:"omitempty,max=60"`
	MinDurationMin  *int       `json:"min_duration_min" validate:"omitempty,min=0"`
	MaxDurationMin  *int       `json:"max_duration_min" validate:"omitempty,min=0"`
	RiderID         *uuid.UUID `json:"rider_id"`
	HorseID         *uuid.UUID `json:"horse_id"`
	BaseAmountCents int64      `json:"base_amount_cents"`
	PerMinuteCents  int64      `json:"per_minute_cents"`
	Currency        *string    `json:"currency" validate:"omitempty,currency"`
}

// PATCH; Clear* drops an optional filter (back to "match any").
type UpdatePricingRuleRequest struct {
	Name            *string    `json:"name" validate:"omitempty,min=1,max=120"`
	IsActive        *bool      `json:"is_active"`
	Priority        *int       `json:"priority" validate:"omitempty,min=0,max=10000"`
	Discipline      *string    `json:"discipline" validate:"omitempty,max=60"`
	MinDurationMin  *int       `json:"min_duration_min" validate:"omitempty,min=0"`
	MaxDurationMin  *int       `json:"max_duration_min" validate:"omitempty,min=0"`
	RiderID         *uuid.UUID `json:"rider_id"`
	HorseID         *uuid.UUID `json:"horse_id"`
	BaseAmountCents *int64     `json:"base_amount_cents"`
	PerMinuteCents  *int64     `json:"per_minute_cents"`
	Currency        *string    `json:"currency" validate:"omitempty,currency"`
	Clear           []string   `json:"clear" validate:"omitempty,dive,oneof=discipline min_duration_min max_duration_min rider_id horse_id"`
}

type PreviewRequest struct {
	Discipline  string     `json:"discipline" validate:"required,max=60"`
	DurationMin int        `json:"duration_min" validate:"required,min=1"`
	RiderID     *uuid.UUID `json:"rider_id"`
	HorseID     *uuid.UUID `json:"horse_id"`
	Currency    *string    `json:"currency" validate:"omitempty,currency"`
}

func disciplinePtr(p *string) *string {
	s := helper.TrimPtr(p)
	if s == nil {
		return nil
	}
	d := helper.NormalizeDiscipline(*s)
	if d == "" {
		return nil
	}
	return &d
}

func (r CreatePricingRuleRequest) ToModel(defaultCurrency string) model.PricingRule {
	m := model.PricingRule{
		Name:            strings.TrimSpace(r.Name),
		IsActive:        true,
		Priority:        100,
		Discipline:      disciplinePtr(r.Discipline),
		MinDurationMin:  r.MinDurationMin,
		MaxDurationMin:  r.MaxDurationMin,
		RiderID:         r.RiderID,
		HorseID:         r.HorseID,
		BaseAmountCents: r.BaseAmountCents,
		PerMinuteCents:  r.PerMinuteCents,
		Currency:        defaultCurrency,
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.Priority != nil {
		m.Priority = *r.Priority
	}
	if r.Currency != nil {
		m.Currency = *r.Currency
	}
	return m
}

func (r UpdatePricingRuleRequest) Apply(m *model.PricingRule) {
	if r.Name != nil {
		m.Name = strings.TrimSpace(*r.Name)
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}
	if r.Priority != nil {
		m.Priority = *r.Priority
	}
	if r.Discipline != nil {
		m.Discipline = disciplinePtr(r.Discipline)
	}
	if r.MinDurationMin != nil {
		m.MinDurationMin = r.MinDurationMin
	}
	if r.MaxDurationMin != nil {
		m.MaxDurationMin = r.MaxDurationMin
	}
	if r.RiderID != nil {
		m.RiderID = r.RiderID
	}
	if r.HorseID != nil {
		m.HorseID = r.HorseID
	}
	if r.BaseAmountCents != nil {
		m.BaseAmountCents = *r.BaseAmountCents
	}
	if r.PerMinuteCents != nil {
		m.PerMinuteCents = *r.PerMinuteCents
	}
	if r.Currency != nil {
		m.Currency = *r.Currency
	}
	for _, f := range r.Clear {
		switch f {
		case "discipline":
			m.Discipline = nil
		case "min_duration_min":
			m.MinDurationMin = nil
		case "max_duration_min":
			m.MaxDurationMin = nil
		case "rider_id":
			m.RiderID = nil
		case "horse_id":
			m.HorseID = nil
		}
	}
}

// ValidRange: min <= max when both are set.
func ValidRange(m model.PricingRule) bool {
	return m.MinDurationMin == nil || m.MaxDurationMin == nil || *m.MinDurationMin <= *m.MaxDurationMin
}
