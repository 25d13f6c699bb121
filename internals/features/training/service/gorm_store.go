package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"horseclub_backend/internals/constants"
	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	pricingModel "horseclub_backend/internals/features/finance/pricing/model"
	pricingService "horseclub_backend/internals/features/finance/pricing/service"
	bookingModel "horseclub_backend/internals/features/training/bookings/model"
	slotModel "horseclub_backend/internals/features/training/slots/model"
	trainingModel "horseclub_backend/internals/features/training/trainings/model"
)

type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&gormTx{db: db})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) ActiveRules(ctx context.Context, currency string) ([]pricingModel.PricingRule, error) {
	return pricingService.GormRuleSource{DB: t.db}.ActiveRules(ctx, currency)
}

func (t *gormTx) LockSlot(ctx context.Context, id uuid.UUID) (*slotModel.TrainingSlot, error) {
	var s slotModel.TrainingSlot
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *gormTx) GetSlot(ctx context.Context, id uuid.UUID) (*slotModel.TrainingSlot, error) {
	var s slotModel.TrainingSlot
	if err := t.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *gormTx) CountActiveBookings(ctx context.Context, slotID uuid.UUID) (int64, error) {
	var n int64
	err := t.db.WithContext(ctx).
		Model(&bookingModel.TrainingBooking{}).
		Where("slot_id = ? AND status = ?", slotID, constants.BookingBooked).
		Count(&n).Error
	return n, err
}

func (t *gormTx) FindOpenBooking(ctx context.Context, slotID, horseID, riderID uuid.UUID) (*bookingModel.TrainingBooking, error) {
	var b bookingModel.TrainingBooking
	err := t.db.WithContext(ctx).
		Where("slot_id = ? AND horse_id = ? AND rider_id = ? AND status <> ?",
			slotID, horseID, riderID, constants.BookingCancelled).
		Take(&b).Error
	return orNil(&b, err)
}

func (t *gormTx) CreateBooking(ctx context.Context, b *bookingModel.TrainingBooking) error {
	return t.db.WithContext(ctx).Create(b).Error
}

func (t *gormTx) LockBooking(ctx context.Context, id uuid.UUID) (*bookingModel.TrainingBooking, error) {
	var b bookingModel.TrainingBooking
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *gormTx) SaveBooking(ctx context.Context, b *bookingModel.TrainingBooking) error {
	return t.db.WithContext(ctx).
		Model(b).
		Select("status", "training_id", "marked_at", "cancelled_at", "cancel_reason", "updated_at").
		Updates(b).Error
}

func (t *gormTx) FindTraining(ctx context.Context, id uuid.UUID) (*trainingModel.Training, error) {
	var tr trainingModel.Training
	err := t.db.WithContext(ctx).Take(&tr, "id = ?", id).Error
	return orNil(&tr, err)
}

func (t *gormTx) FindTrainingBySourceBooking(ctx context.Context, bookingID uuid.UUID) (*trainingModel.Training, error) {
	var tr trainingModel.Training
	err := t.db.WithContext(ctx).Take(&tr, "source_booking_id = ?", bookingID).Error
	return orNil(&tr, err)
}

func (t *gormTx) CreateTraining(ctx context.Context, tr *trainingModel.Training) error {
	return t.db.WithContext(ctx).Create(tr).Error
}

func (t *gormTx) SyncTrainingBilling(ctx context.Context, trainingID uuid.UUID, status string, chargeID uuid.UUID) error {
	return t.db.WithContext(ctx).
		Model(&trainingModel.Training{}).
		Where("id = ?", trainingID).
		Updates(map[string]any{
			"billing_status":    status,
			"billing_charge_id": chargeID,
		}).Error
}

func (t *gormTx) FindChargeForBooking(ctx context.Context, bookingID, trainingID uuid.UUID) (*chargeModel.BillingCharge, error) {
	var c chargeModel.BillingCharge
	err := t.db.WithContext(ctx).
		Where("booking_id = ? OR training_id = ?", bookingID, trainingID).
		Order("created_at ASC").
		Take(&c).Error
	return orNil(&c, err)
}

func (t *gormTx) CreateCharge(ctx context.Context, c *chargeModel.BillingCharge) error {
	return t.db.WithContext(ctx).Create(c).Error
}

func orNil[T any](v *T, err error) (*T, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
