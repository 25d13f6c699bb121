package service

import (
	"context"

	"github.com/google/uuid"

	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	pricingService "horseclub_backend/internals/features/finance/pricing/service"
	bookingModel "horseclub_backend/internals/features/training/bookings/model"
	slotModel "horseclub_backend/internals/features/training/slots/model"
	trainingModel "horseclub_backend/internals/features/training/trainings/model"
)

// Store opens transactions for the booking flows.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the datastore view inside one transaction.
// Lock*/Get* return gorm.ErrRecordNotFound when the row is missing;
// Find* return (nil, nil).
type Tx interface {
	pricingService.RuleSource

	LockSlot(ctx context.Context, id uuid.UUID) (*slotModel.TrainingSlot, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*slotModel.TrainingSlot, error)
	CountActiveBookings(ctx context.Context, slotID uuid.UUID) (int64, error)
	FindOpenBooking(ctx context.Context, slotID, horseID, riderID uuid.UUID) (*bookingModel.TrainingBooking, error)
	CreateBooking(ctx context.Context, b *bookingModel.TrainingBooking) error
	LockBooking(ctx context.Context, id uuid.UUID) (*bookingModel.TrainingBooking, error)
	SaveBooking(ctx context.Context, b *bookingModel.TrainingBooking) error

	FindTraining(ctx context.Context, id uuid.UUID) (*trainingModel.Training, error)
	FindTrainingBySourceBooking(ctx context.Context, bookingID uuid.UUID) (*trainingModel.Training, error)
	CreateTraining(ctx context.Context, t *trainingModel.Training) error
	SyncTrainingBilling(ctx context.Context, trainingID uuid.UUID, status string, chargeID uuid.UUID) error

	FindChargeForBooking(ctx context.Context, bookingID, trainingID uuid.UUID) (*chargeModel.BillingCharge, error)
	CreateCharge(ctx context.Context, c *chargeModel.BillingCharge) error
}
