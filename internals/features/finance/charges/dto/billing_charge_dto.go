package dto

import (
	"time"

	"horseclub_backend/internals/features/finance/charges/model"
)

type VoidChargeRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// ChargeListItem: charge + rider/horse names + training date.
type ChargeListItem struct {
	model.BillingCharge
	RiderName    *string    `gorm:"column:rider_name" json:"rider_name,omitempty"`
	HorseName    *string    `gorm:"column:horse_name" json:"horse_name,omitempty"`
	TrainingDate *time.Time `gorm:"column:training_date" json:"training_date,omitempty"`
}

type MarkPaidResponse struct {
	Charge     *model.BillingCharge `json:"charge"`
	Idempotent bool                 `json:"idempotent"`
}
