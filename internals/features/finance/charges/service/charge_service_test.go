package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horseclub_backend/internals/constants"
	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	"horseclub_backend/internals/features/finance/charges/service"
	trainingModel "horseclub_backend/internals/features/training/trainings/model"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/testutil/fakes"
	"horseclub_backend/internals/testutil/memstore"
)

func setup(t *testing.T) (*memstore.DB, *service.Service, *fakes.Auditor, chargeModel.BillingCharge) {
	t.Helper()
	db := memstore.New()
	tr := db.AddTraining(trainingModel.Training{
		HorseID: uuid.New(), RiderID: uuid.New(), DurationMin: 60,
		Discipline: "jumping", Status: constants.TrainingCompleted, BillingStatus: constants.ChargeUnpaid,
	})
	trID := tr.ID
	c := db.AddCharge(chargeModel.BillingCharge{
		TrainingID:  &trID,
		AmountCents: 4500,
		Currency:    "EUR",
		Status:      constants.ChargeUnpaid,
	})
	audit := &fakes.Auditor{}
	return db, service.New(db.ChargeStore(), audit, &fakes.Publisher{}), audit, c
}

func TestMarkPaid_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, svc, audit, c := setup(t)
	ref := "receipt-17"

	first, idem, err := svc.MarkPaid(ctx, c.ID, service.MarkPaidInput{PaidMethod: "cash", PaidReference: &ref}, helper.Actor{})
	require.NoError(t, err)
	assert.False(t, idem)
	assert.Equal(t, constants.ChargePaid, first.Status)
	require.NotNil(t, first.PaidAt)
	assert.Equal(t, "cash", *first.PaidMethod)
	require.Equal(t, 1, audit.Len())

	entry := audit.Entries[0]
	assert.Equal(t, "mark_paid", entry.Action)
	assert.Equal(t, constants.ChargeUnpaid, entry.Diff["status"].From)
	assert.Equal(t, constants.ChargePaid, entry.Diff["status"].To)
	assert.Contains(t, entry.Diff, "paid_method")
	assert.Contains(t, entry.Diff, "paid_reference")

	second, idem, err := svc.MarkPaid(ctx, c.ID, service.MarkPaidInput{PaidMethod: "card"}, helper.Actor{})
	require.NoError(t, err)
	assert.True(t, idem)
	assert.Equal(t, "cash", *second.PaidMethod, "second call changes nothing")
	assert.Equal(t, first.PaidAt, second.PaidAt)
	assert.Equal(t, 1, audit.Len(), "idempotent call is not audited")

	tr, _ := db.Training(*c.TrainingID)
	assert.Equal(t, constants.ChargePaid, tr.BillingStatus)
}

func TestMarkPaid_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown method", func(t *testing.T) {
		db, svc, _, c := setup(t)
		_, _, err := svc.MarkPaid(ctx, c.ID, service.MarkPaidInput{PaidMethod: "bitcoin"}, helper.Actor{})
		assert.True(t, errors.Is(err, service.ErrInvalidPaidMethod))
		stored, _ := db.Charge(c.ID)
		assert.Equal(t, constants.ChargeUnpaid, stored.Status)
	})

	t.Run("unknown charge", func(t *testing.T) {
		_, svc, _, _ := setup(t)
		_, _, err := svc.MarkPaid(ctx, uuid.New(), service.MarkPaidInput{PaidMethod: "cash"}, helper.Actor{})
		assert.True(t, errors.Is(err, service.ErrChargeNotFound))
	})
}

func TestVoid_IsTerminal(t *testing.T) {
	ctx := context.Background()
	db, svc, _, c := setup(t)
	reason := "duplicate entry"

	voided, err := svc.Void(ctx, c.ID, &reason, helper.Actor{})
	require.NoError(t, err)
	assert.Equal(t, constants.ChargeVoid, voided.Status)
	require.NotNil(t, voided.Note)
	assert.Contains(t, *voided.Note, "duplicate entry")

	tr, _ := db.Training(*c.TrainingID)
	assert.Equal(t, constants.ChargeVoid, tr.BillingStatus)

	_, _, err = svc.MarkPaid(ctx, c.ID, service.MarkPaidInput{PaidMethod: "cash"}, helper.Actor{})
	assert.True(t, errors.Is(err, service.ErrPayVoidedCharge))

	_, err = svc.Void(ctx, c.ID, nil, helper.Actor{})
	assert.True(t, errors.Is(err, service.ErrAlreadyVoid))
}

func TestVoid_PaidChargeCanBeVoided(t *testing.T) {
	ctx := context.Background()
	_, svc, _, c := setup(t)

	_, _, err := svc.MarkPaid(ctx, c.ID, service.MarkPaidInput{PaidMethod: "transfer"}, helper.Actor{})
	require.NoError(t, err)

	voided, err := svc.Void(ctx, c.ID, nil, helper.Actor{})
	require.NoError(t, err)
	assert.Equal(t, constants.ChargeVoid, voided.Status)
	assert.Equal(t, int64(4500), voided.AmountCents)
}

func TestDelete_PaidChargeIsBlocked(t *testing.T) {
	ctx := context.Background()
	db, svc, _, c := setup(t)

	_, _, err := svc.MarkPaid(ctx, c.ID, service.MarkPaidInput{PaidMethod: "card"}, helper.Actor{})
	require.NoError(t, err)

	_, err = svc.Delete(ctx, c.ID, helper.Actor{})
	assert.True(t, errors.Is(err, service.ErrDeletePaidCharge))
	_, ok := db.Charge(c.ID)
	assert.True(t, ok)
}

func TestDelete_DetachesTraining(t *testing.T) {
	ctx := context.Background()
	db, svc, audit, c := setup(t)

	_, err := svc.Delete(ctx, c.ID, helper.Actor{})
	require.NoError(t, err)

	_, ok := db.Charge(c.ID)
	assert.False(t, ok)
	tr, _ := db.Training(*c.TrainingID)
	assert.Equal(t, constants.BillingNone, tr.BillingStatus)
	assert.Nil(t, tr.BillingChargeID)
	assert.Equal(t, []string{"billing_charge:delete"}, audit.Actions())
}

func TestUpdate_OnlyTouchesFreeText(t *testing.T) {
	ctx := context.Background()
	_, svc, audit, c := setup(t)
	note := "  paid half in advance  "

	updated, err := svc.Update(ctx, c.ID, service.PatchInput{Note: &note}, helper.Actor{})
	require.NoError(t, err)
	require.NotNil(t, updated.Note)
	assert.Equal(t, "paid half in advance", *updated.Note)
	assert.Equal(t, int64(4500), updated.AmountCents)
	require.Equal(t, 1, audit.Len())
	assert.Contains(t, audit.Entries[0].Diff, "note")

	_, err = svc.Update(ctx, c.ID, service.PatchInput{}, helper.Actor{})
	require.NoError(t, err)
	assert.Equal(t, 1, audit.Len(), "empty patch is not audited")
}
