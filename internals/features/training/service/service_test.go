package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horseclub_backend/internals/constants"
	chargeService "horseclub_backend/internals/features/finance/charges/service"
	pricingModel "horseclub_backend/internals/features/finance/pricing/model"
	"horseclub_backend/internals/features/training/service"
	slotModel "horseclub_backend/internals/features/training/slots/model"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/helpers/dbtime"
	"horseclub_backend/internals/testutil/fakes"
	"horseclub_backend/internals/testutil/memstore"
)

type fixture struct {
	db     *memstore.DB
	svc    *service.Service
	audit  *fakes.Auditor
	events *fakes.Publisher
	actor  helper.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memstore.New()
	audit := &fakes.Auditor{}
	events := &fakes.Publisher{}
	svc := service.New(db.TrainingStore(), audit, events)
	svc.Now = func() time.Time { return time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC) }
	actorID := uuid.New()
	return &fixture{
		db:     db,
		svc:    svc,
		audit:  audit,
		events: events,
		actor:  helper.Actor{ID: &actorID, Name: "stable office"},
	}
}

func (f *fixture) slot(capacity int, status string) slotModel.TrainingSlot {
	trainer := uuid.New()
	return f.db.AddSlot(slotModel.TrainingSlot{
		Date:        time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		StartTime:   dbtime.MustParse("10:00"),
		DurationMin: 45,
		Discipline:  "dressage",
		Capacity:    capacity,
		TrainerID:   &trainer,
		Status:      status,
	})
}

func pair() service.BookInput {
	return service.BookInput{HorseID: uuid.New(), RiderID: uuid.New()}
}

func TestBookSlot_Preconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown slot", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.BookSlot(ctx, uuid.New(), pair(), f.actor)
		assert.True(t, errors.Is(err, service.ErrSlotNotFound))
	})

	t.Run("slot not open", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(3, constants.SlotClosed)
		_, err := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
		assert.True(t, errors.Is(err, service.ErrSlotNotOpen))
	})

	t.Run("duplicate pair", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(3, constants.SlotOpen)
		in := pair()
		_, err := f.svc.BookSlot(ctx, s.ID, in, f.actor)
		require.NoError(t, err)
		_, err = f.svc.BookSlot(ctx, s.ID, in, f.actor)
		assert.True(t, errors.Is(err, service.ErrDuplicateBooking))
	})

	t.Run("missing participants", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(3, constants.SlotOpen)
		_, err := f.svc.BookSlot(ctx, s.ID, service.BookInput{HorseID: uuid.New()}, f.actor)
		assert.True(t, errors.Is(err, service.ErrMissingParticipants))
	})

	t.Run("capacity checked before duplicate", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(1, constants.SlotOpen)
		in := pair()
		_, err := f.svc.BookSlot(ctx, s.ID, in, f.actor)
		require.NoError(t, err)
		_, err = f.svc.BookSlot(ctx, s.ID, in, f.actor)
		assert.True(t, errors.Is(err, service.ErrCapacityExceeded))
	})
}

func TestBookSlot_CreatesBookedAndAudits(t *testing.T) {
	f := newFixture(t)
	s := f.slot(2, constants.SlotOpen)

	b, err := f.svc.BookSlot(context.Background(), s.ID, pair(), f.actor)
	require.NoError(t, err)

	assert.Equal(t, constants.BookingBooked, b.Status)
	assert.Equal(t, f.actor.ID, b.CreatedByActorID)
	assert.Equal(t, []string{"training_booking:book"}, f.audit.Actions())
	assert.Equal(t, []string{"booking.created"}, f.events.Keys())
}

func TestBookSlot_CancelledBookingFreesCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.slot(1, constants.SlotOpen)

	in := pair()
	b, err := f.svc.BookSlot(ctx, s.ID, in, f.actor)
	require.NoError(t, err)

	reason := "horse lame"
	cancelled, err := f.svc.CancelBooking(ctx, b.ID, &reason, f.actor)
	require.NoError(t, err)
	assert.Equal(t, constants.BookingCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelReason)
	assert.Equal(t, reason, *cancelled.CancelReason)

	// cancelled bookings neither count nor block a re-booking of the same pair
	_, err = f.svc.BookSlot(ctx, s.ID, in, f.actor)
	require.NoError(t, err)

	again, err := f.svc.CancelBooking(ctx, b.ID, nil, f.actor)
	require.NoError(t, err)
	assert.Equal(t, constants.BookingCancelled, again.Status)
}

func TestBookSlot_ConcurrentBookingsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	s := f.slot(3, constants.SlotOpen)

	const attempts = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		capacity int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.BookSlot(context.Background(), s.ID, pair(), f.actor)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, service.ErrCapacityExceeded):
				capacity++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, attempts-3, capacity)
	assert.Equal(t, 3, f.db.ActiveBookings(s.ID))
}

func TestMarkBooking_AttendedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.db.AddRule(pricingModel.PricingRule{
		Name: "dressage lesson", IsActive: true, Priority: 10,
		BaseAmountCents: 1000, PerMinuteCents: 50, Currency: "EUR",
	})
	s := f.slot(1, constants.SlotOpen)
	b, err := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
	require.NoError(t, err)

	first, err := f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
	require.NoError(t, err)
	require.NotNil(t, first.Training)
	require.NotNil(t, first.Charge)

	assert.Equal(t, constants.BookingAttended, first.Booking.Status)
	assert.Equal(t, first.Training.ID, *first.Booking.TrainingID)
	assert.Equal(t, b.ID, *first.Training.SourceBookingID)
	assert.Equal(t, s.Discipline, first.Training.Discipline)
	assert.Equal(t, s.DurationMin, first.Training.DurationMin)
	assert.Equal(t, int64(1000+50*45), first.Charge.AmountCents)
	assert.Equal(t, constants.ChargeUnpaid, first.Charge.Status)
	assert.Equal(t, constants.ChargeUnpaid, first.Training.BillingStatus)
	assert.Equal(t, first.Charge.ID, *first.Training.BillingChargeID)

	auditsAfterFirst := f.audit.Len()

	second, err := f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
	require.NoError(t, err)
	assert.Equal(t, first.Training.ID, second.Training.ID)
	assert.Equal(t, first.Charge.ID, second.Charge.ID)

	_, trainings, charges := f.db.Counts()
	assert.Equal(t, 1, trainings)
	assert.Equal(t, 1, charges)
	assert.Equal(t, auditsAfterFirst, f.audit.Len(), "repeat mark writes no audit")
}

func TestMarkBooking_Transitions(t *testing.T) {
	ctx := context.Background()

	t.Run("no_show is a no-op the second time", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(1, constants.SlotOpen)
		b, err := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
		require.NoError(t, err)

		res, err := f.svc.MarkBooking(ctx, b.ID, "no_show", f.actor)
		require.NoError(t, err)
		assert.Equal(t, constants.BookingNoShow, res.Booking.Status)
		assert.Nil(t, res.Training)
		n := f.audit.Len()

		_, err = f.svc.MarkBooking(ctx, b.ID, "no_show", f.actor)
		require.NoError(t, err)
		assert.Equal(t, n, f.audit.Len())

		_, trainings, charges := f.db.Counts()
		assert.Zero(t, trainings)
		assert.Zero(t, charges)
	})

	t.Run("no_show cannot become attended", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(1, constants.SlotOpen)
		b, _ := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
		_, err := f.svc.MarkBooking(ctx, b.ID, "no_show", f.actor)
		require.NoError(t, err)

		_, err = f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
		assert.True(t, errors.Is(err, service.ErrInvalidTransition))
	})

	t.Run("attended cannot become no_show", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(1, constants.SlotOpen)
		b, _ := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
		_, err := f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
		require.NoError(t, err)

		_, err = f.svc.MarkBooking(ctx, b.ID, "no_show", f.actor)
		assert.True(t, errors.Is(err, service.ErrInvalidTransition))
	})

	t.Run("cancelled booking is rejected", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(1, constants.SlotOpen)
		b, _ := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
		_, err := f.svc.CancelBooking(ctx, b.ID, nil, f.actor)
		require.NoError(t, err)

		_, err = f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
		assert.True(t, errors.Is(err, service.ErrBookingCancelled))
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.MarkBooking(ctx, uuid.New(), "late", f.actor)
		assert.True(t, errors.Is(err, service.ErrInvalidMarkStatus))
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.MarkBooking(ctx, uuid.New(), "attended", f.actor)
		assert.True(t, errors.Is(err, service.ErrBookingNotFound))
	})

	t.Run("attended booking cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		s := f.slot(1, constants.SlotOpen)
		b, _ := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
		_, err := f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
		require.NoError(t, err)

		_, err = f.svc.CancelBooking(ctx, b.ID, nil, f.actor)
		assert.True(t, errors.Is(err, service.ErrInvalidTransition))
	})
}

func TestMarkBooking_ChargeFailureRollsBackTraining(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.slot(1, constants.SlotOpen)
	b, err := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
	require.NoError(t, err)
	auditsBefore := f.audit.Len()

	f.db.FailCreateCharge = errors.New("disk full")
	_, err = f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)

	var stepErr *service.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, service.StepChargeCreate, stepErr.Step)
	assert.Equal(t, b.ID, stepErr.BookingID)

	_, trainings, charges := f.db.Counts()
	assert.Zero(t, trainings, "training insert must be rolled back")
	assert.Zero(t, charges)
	stored, _ := f.db.Booking(b.ID)
	assert.Equal(t, constants.BookingBooked, stored.Status)
	assert.Equal(t, auditsBefore, f.audit.Len(), "no audit for a rolled back flow")

	// retry succeeds once the datastore recovers
	f.db.FailCreateCharge = nil
	res, err := f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
	require.NoError(t, err)
	assert.NotNil(t, res.Charge)
}

func TestMarkBooking_TrainingFailureReportsStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.slot(1, constants.SlotOpen)
	b, err := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
	require.NoError(t, err)

	f.db.FailCreateTraining = errors.New("connection reset")
	_, err = f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)

	var stepErr *service.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, service.StepTrainingCreate, stepErr.Step)
}

func TestMarkBooking_FallbackPriceWithoutRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.svc.FallbackCents = 2500
	s := f.slot(1, constants.SlotOpen)
	b, err := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
	require.NoError(t, err)

	res, err := f.svc.MarkBooking(ctx, b.ID, "attended", f.actor)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), res.Charge.AmountCents)
	assert.Nil(t, res.Charge.PricingRuleID)
	assert.Contains(t, string(res.Charge.ComputedDetails), `"fallback":true`)
}

// Slot with capacity 1: book, reject the second rider, attend, pay.
func TestScenario_BookAttendPay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.db.AddRule(pricingModel.PricingRule{
		Name: "default", IsActive: true, Priority: 100, BaseAmountCents: 3000, Currency: "EUR",
	})
	s := f.slot(1, constants.SlotOpen)

	b1, err := f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
	require.NoError(t, err)

	_, err = f.svc.BookSlot(ctx, s.ID, pair(), f.actor)
	require.True(t, errors.Is(err, service.ErrCapacityExceeded))

	marked, err := f.svc.MarkBooking(ctx, b1.ID, "attended", f.actor)
	require.NoError(t, err)
	assert.Equal(t, constants.ChargeUnpaid, marked.Charge.Status)

	charges := chargeService.New(f.db.ChargeStore(), f.audit, f.events)
	paid, idempotent, err := charges.MarkPaid(ctx, marked.Charge.ID, chargeService.MarkPaidInput{PaidMethod: "cash"}, f.actor)
	require.NoError(t, err)
	assert.False(t, idempotent)
	assert.Equal(t, constants.ChargePaid, paid.Status)

	training, ok := f.db.Training(marked.Training.ID)
	require.True(t, ok)
	assert.Equal(t, constants.ChargePaid, training.BillingStatus)
}
