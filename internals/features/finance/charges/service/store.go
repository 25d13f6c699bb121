package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	trainingModel "horseclub_backend/internals/features/training/trainings/model"
)

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx: LockCharge returns gorm.ErrRecordNotFound for unknown ids.
type Tx interface {
	LockCharge(ctx context.Context, id uuid.UUID) (*chargeModel.BillingCharge, error)
	SaveCharge(ctx context.Context, c *chargeModel.BillingCharge, columns ...string) error
	DeleteCharge(ctx context.Context, id uuid.UUID) error
	// SetTrainingBilling mirrors the charge status on its training; a nil
	// chargeID detaches the charge.
	SetTrainingBilling(ctx context.Context, trainingID uuid.UUID, status string, chargeID *uuid.UUID) error
}

type GormStore struct{ DB *gorm.DB }

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.DB.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(gormTx{db: db})
	})
}

type gormTx struct{ db *gorm.DB }

func (t gormTx) LockCharge(ctx context.Context, id uuid.UUID) (*chargeModel.BillingCharge, error) {
	var c chargeModel.BillingCharge
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (t gormTx) SaveCharge(ctx context.Context, c *chargeModel.BillingCharge, columns ...string) error {
	q := t.db.WithContext(ctx).Model(c)
	if len(columns) > 0 {
		q = q.Select(append(columns, "updated_at"))
	}
	return q.Updates(c).Error
}

func (t gormTx) DeleteCharge(ctx context.Context, id uuid.UUID) error {
	return t.db.WithContext(ctx).Delete(&chargeModel.BillingCharge{}, "id = ?", id).Error
}

func (t gormTx) SetTrainingBilling(ctx context.Context, trainingID uuid.UUID, status string, chargeID *uuid.UUID) error {
	return t.db.WithContext(ctx).
		Model(&trainingModel.Training{}).
		Where("id = ?", trainingID).
		Updates(map[string]any{
			"billing_status":    status,
			"billing_charge_id": chargeID,
		}).Error
}
