package service

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	pricingService "horseclub_backend/internals/features/finance/pricing/service"
	notifService "horseclub_backend/internals/features/notifications/service"
	bookingModel "horseclub_backend/internals/features/training/bookings/model"
	trainingModel "horseclub_backend/internals/features/training/trainings/model"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/metrics"
)

// Service runs the booking -> attendance -> billing flow.
// Every flow is one transaction; audit entries and events go out after commit.
type Service struct {
	Store           Store
	Audit           auditService.Auditor
	Events          notifService.Publisher
	DefaultCurrency string
	FallbackCents   int64
	Now             func() time.Time
}

func New(store Store, audit auditService.Auditor, events notifService.Publisher) *Service {
	if audit == nil {
		audit = auditService.Discard{}
	}
	if events == nil {
		events = notifService.Nop{}
	}
	return &Service{
		Store:           store,
		Audit:           audit,
		Events:          events,
		DefaultCurrency: "EUR",
		Now:             func() time.Time { return time.Now().UTC() },
	}
}

type BookInput struct {
	HorseID uuid.UUID `json:"horse_id" validate:"required"`
	RiderID uuid.UUID `json:"rider_id" validate:"required"`
}

type MarkResult struct {
	Booking  *bookingModel.TrainingBooking `json:"booking"`
	Training *trainingModel.Training       `json:"training,omitempty"`
	Charge   *chargeModel.BillingCharge    `json:"charge,omitempty"`
}

// outbox collects side effects that must only happen after commit.
type outbox struct {
	audits []auditService.Entry
	events []notifService.Event
}

func (s *Service) flush(ctx context.Context, ob *outbox) {
	for _, e := range ob.audits {
		s.Audit.Log(ctx, e)
	}
	for _, e := range ob.events {
		s.Events.Publish(ctx, e)
	}
}

/* =========================================================
   BOOK
========================================================= */

// BookSlot reserves a place on a slot. Checks run in order: slot exists,
// slot is open, capacity left, no duplicate for the same horse and rider.
func (s *Service) BookSlot(ctx context.Context, slotID uuid.UUID, in BookInput, actor helper.Actor) (*bookingModel.TrainingBooking, error) {
	if in.HorseID == uuid.Nil || in.RiderID == uuid.Nil {
		return nil, ErrMissingParticipants
	}

	var ob outbox
	var booking *bookingModel.TrainingBooking

	err := s.Store.InTx(ctx, func(tx Tx) error {
		slot, err := tx.LockSlot(ctx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return errors.Wrap(err, "load slot")
		}
		if slot.Status != constants.SlotOpen {
			return ErrSlotNotOpen
		}

		active, err := tx.CountActiveBookings(ctx, slot.ID)
		if err != nil {
			return errors.Wrap(err, "count bookings")
		}
		if active >= int64(slot.Capacity) {
			return ErrCapacityExceeded
		}

		dup, err := tx.FindOpenBooking(ctx, slot.ID, in.HorseID, in.RiderID)
		if err != nil {
			return errors.Wrap(err, "check duplicate")
		}
		if dup != nil {
			return ErrDuplicateBooking
		}

		b := &bookingModel.TrainingBooking{
			ID:               uuid.New(),
			SlotID:           slot.ID,
			HorseID:          in.HorseID,
			RiderID:          in.RiderID,
			Status:           constants.BookingBooked,
			CreatedByActorID: actor.ID,
		}
		if err := tx.CreateBooking(ctx, b); err != nil {
			switch {
			case helper.IsUniqueViolation(err):
				return ErrDuplicateBooking
			case helper.IsForeignKeyViolation(err):
				return ErrUnknownReference
			}
			return errors.Wrap(err, "insert booking")
		}
		booking = b

		ob.audits = append(ob.audits, auditService.Entry{
			Action:     auditService.ActionBook,
			EntityType: "training_booking",
			EntityID:   &b.ID,
			Actor:      actor,
			After:      b,
		})
		ob.events = append(ob.events, notifService.Event{
			Key:        notifService.KeyBookingCreated,
			EntityType: "training_booking",
			EntityID:   &b.ID,
			Title:      "New booking for " + slot.Discipline + " on " + slot.Date.Format("2006-01-02") + " " + slot.StartTime.Format("15:04"),
			Payload: map[string]any{
				"slot_id":  slot.ID,
				"horse_id": b.HorseID,
				"rider_id": b.RiderID,
			},
		})
		return nil
	})
	if err != nil {
		metrics.BookingsTotal.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	metrics.BookingsTotal.WithLabelValues("created").Inc()
	s.flush(ctx, &ob)
	return booking, nil
}

/* =========================================================
   CANCEL
========================================================= */

// CancelBooking frees the place. Cancelling twice is a no-op; attended and
// no_show bookings cannot be cancelled.
func (s *Service) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason *string, actor helper.Actor) (*bookingModel.TrainingBooking, error) {
	var ob outbox
	var booking *bookingModel.TrainingBooking

	err := s.Store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return errors.Wrap(err, "load booking")
		}
		booking = b

		switch b.Status {
		case constants.BookingCancelled:
			return nil
		case constants.BookingBooked:
		default:
			return ErrInvalidTransition
		}

		before := *b
		now := s.Now()
		b.Status = constants.BookingCancelled
		b.CancelledAt = &now
		b.CancelReason = helper.TrimPtr(reason)
		if err := tx.SaveBooking(ctx, b); err != nil {
			return errors.Wrap(err, "update booking")
		}

		ob.audits = append(ob.audits, auditService.Entry{
			Action:     auditService.ActionCancel,
			EntityType: "training_booking",
			EntityID:   &b.ID,
			Actor:      actor,
			Before:     before,
			After:      b,
		})
		ob.events = append(ob.events, notifService.Event{
			Key:        notifService.KeyBookingCancelled,
			EntityType: "training_booking",
			EntityID:   &b.ID,
			Title:      "Booking cancelled",
			Payload:    map[string]any{"slot_id": b.SlotID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.flush(ctx, &ob)
	return booking, nil
}

/* =========================================================
   MARK ATTENDANCE
========================================================= */

// MarkBooking records attendance. attended creates (or reuses) the Training
// and its BillingCharge; repeating it never duplicates either.
func (s *Service) MarkBooking(ctx context.Context, bookingID uuid.UUID, status string, actor helper.Actor) (*MarkResult, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.BookingAttended && status != constants.BookingNoShow {
		return nil, ErrInvalidMarkStatus
	}

	var ob outbox
	res := &MarkResult{}

	err := s.Store.InTx(ctx, func(tx Tx) error {
		b, err := tx.LockBooking(ctx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return errors.Wrap(err, "load booking")
		}
		res.Booking = b

		if b.Status == constants.BookingCancelled {
			return ErrBookingCancelled
		}

		if status == constants.BookingNoShow {
			return s.markNoShow(ctx, tx, b, actor, &ob)
		}
		return s.markAttended(ctx, tx, b, actor, res, &ob)
	})
	if err != nil {
		metrics.AttendanceMarksTotal.WithLabelValues(status, outcomeOf(err)).Inc()
		return nil, err
	}

	metrics.AttendanceMarksTotal.WithLabelValues(status, "ok").Inc()
	s.flush(ctx, &ob)
	return res, nil
}

func (s *Service) markNoShow(ctx context.Context, tx Tx, b *bookingModel.TrainingBooking, actor helper.Actor, ob *outbox) error {
	switch b.Status {
	case constants.BookingNoShow:
		return nil
	case constants.BookingAttended:
		return ErrInvalidTransition
	}

	before := *b
	now := s.Now()
	b.Status = constants.BookingNoShow
	b.MarkedAt = &now
	if err := tx.SaveBooking(ctx, b); err != nil {
		return errors.Wrap(err, "update booking")
	}
	ob.audits = append(ob.audits, auditService.Entry{
		Action:     auditService.ActionMark,
		EntityType: "training_booking",
		EntityID:   &b.ID,
		Actor:      actor,
		Before:     before,
		After:      b,
	})
	ob.events = append(ob.events, notifService.Event{
		Key:        notifService.KeyBookingMarked,
		EntityType: "training_booking",
		EntityID:   &b.ID,
		Title:      "Booking marked no_show",
		Payload:    map[string]any{"status": b.Status},
	})
	return nil
}

func (s *Service) markAttended(ctx context.Context, tx Tx, b *bookingModel.TrainingBooking, actor helper.Actor, res *MarkResult, ob *outbox) error {
	if b.Status == constants.BookingNoShow {
		return ErrInvalidTransition
	}

	slot, err := tx.GetSlot(ctx, b.SlotID)
	if err != nil {
		return errors.Wrap(err, "load slot")
	}

	// a) training
	training, err := s.resolveTraining(ctx, tx, b)
	if err != nil {
		return &StepError{Step: StepTrainingCreate, BookingID: b.ID, Err: err}
	}
	if training == nil {
		training = &trainingModel.Training{
			ID:              uuid.New(),
			HorseID:         b.HorseID,
			RiderID:         b.RiderID,
			TrainerID:       slot.TrainerID,
			TrainingDate:    slot.Date,
			StartTime:       slot.StartTime,
			DurationMin:     slot.DurationMin,
			Discipline:      slot.Discipline,
			Status:          constants.TrainingCompleted,
			SourceBookingID: &b.ID,
			BillingStatus:   constants.BillingNone,
		}
		if err := tx.CreateTraining(ctx, training); err != nil {
			return &StepError{Step: StepTrainingCreate, BookingID: b.ID, Err: err}
		}
		ob.audits = append(ob.audits, auditService.Entry{
			Action:     auditService.ActionCreate,
			EntityType: "training",
			EntityID:   &training.ID,
			Actor:      actor,
			After:      *training,
		})
	}

	// b) charge
	charge, err := tx.FindChargeForBooking(ctx, b.ID, training.ID)
	if err != nil {
		return &StepError{Step: StepChargeCreate, BookingID: b.ID, Err: err}
	}
	if charge == nil {
		charge, err = s.createCharge(ctx, tx, b, training)
		if err != nil {
			return &StepError{Step: StepChargeCreate, BookingID: b.ID, Err: err}
		}
		metrics.ChargeTransitionsTotal.WithLabelValues("created").Inc()
		ob.audits = append(ob.audits, auditService.Entry{
			Action:     auditService.ActionCreate,
			EntityType: "billing_charge",
			EntityID:   &charge.ID,
			Actor:      actor,
			After:      *charge,
		})
		ob.events = append(ob.events, notifService.Event{
			Key:        notifService.KeyChargeCreated,
			EntityType: "billing_charge",
			EntityID:   &charge.ID,
			Title:      "New charge " + helper.FormatMoney(charge.AmountCents, charge.Currency),
			Payload: map[string]any{
				"booking_id":   b.ID,
				"training_id":  training.ID,
				"amount_cents": charge.AmountCents,
				"currency":     charge.Currency,
			},
		})
	}

	// c) sync billing status on the training
	if training.BillingStatus != charge.Status || training.BillingChargeID == nil || *training.BillingChargeID != charge.ID {
		if err := tx.SyncTrainingBilling(ctx, training.ID, charge.Status, charge.ID); err != nil {
			return errors.Wrap(err, "sync training billing")
		}
		reloaded, err := tx.FindTraining(ctx, training.ID)
		if err != nil {
			return errors.Wrap(err, "reload training")
		}
		if reloaded != nil {
			training = reloaded
		}
	}

	// d) booking
	if b.Status != constants.BookingAttended || b.TrainingID == nil || *b.TrainingID != training.ID {
		before := *b
		now := s.Now()
		b.Status = constants.BookingAttended
		if b.MarkedAt == nil || before.Status != constants.BookingAttended {
			b.MarkedAt = &now
		}
		b.TrainingID = &training.ID
		if err := tx.SaveBooking(ctx, b); err != nil {
			return errors.Wrap(err, "update booking")
		}
		ob.audits = append(ob.audits, auditService.Entry{
			Action:     auditService.ActionMark,
			EntityType: "training_booking",
			EntityID:   &b.ID,
			Actor:      actor,
			Before:     before,
			After:      b,
		})
		ob.events = append(ob.events, notifService.Event{
			Key:        notifService.KeyBookingMarked,
			EntityType: "training_booking",
			EntityID:   &b.ID,
			Title:      "Booking marked attended",
			Payload:    map[string]any{"status": b.Status, "training_id": training.ID},
		})
	}

	res.Booking = b
	res.Training = training
	res.Charge = charge
	return nil
}

func (s *Service) resolveTraining(ctx context.Context, tx Tx, b *bookingModel.TrainingBooking) (*trainingModel.Training, error) {
	if b.TrainingID != nil {
		t, err := tx.FindTraining(ctx, *b.TrainingID)
		if err != nil || t != nil {
			return t, err
		}
	}
	return tx.FindTrainingBySourceBooking(ctx, b.ID)
}

func (s *Service) createCharge(ctx context.Context, tx Tx, b *bookingModel.TrainingBooking, t *trainingModel.Training) (*chargeModel.BillingCharge, error) {
	riderID, horseID := b.RiderID, b.HorseID
	priced, err := pricingService.ComputeCharge(ctx, tx, pricingService.ChargeContext{
		Discipline:  t.Discipline,
		DurationMin: t.DurationMin,
		RiderID:     &riderID,
		HorseID:     &horseID,
		Currency:    s.currency(),
	}, s.FallbackCents)
	if err != nil {
		return nil, err
	}

	details, err := sonic.Marshal(priced.ComputedDetails)
	if err != nil {
		return nil, errors.Wrap(err, "encode computed details")
	}

	bookingID, trainingID := b.ID, t.ID
	c := &chargeModel.BillingCharge{
		ID:              uuid.New(),
		TrainingID:      &trainingID,
		BookingID:       &bookingID,
		RiderID:         &riderID,
		HorseID:         &horseID,
		AmountCents:     priced.AmountCents,
		Currency:        priced.Currency,
		Status:          constants.ChargeUnpaid,
		PricingRuleID:   priced.PricingRuleID,
		ComputedDetails: datatypes.JSON(details),
	}
	if err := tx.CreateCharge(ctx, c); err != nil {
		return nil, errors.Wrap(err, "insert charge")
	}
	return c, nil
}

func (s *Service) currency() string {
	if s.DefaultCurrency == "" {
		return "EUR"
	}
	return strings.ToUpper(s.DefaultCurrency)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, ErrSlotNotOpen):
		return "not_open"
	case errors.Is(err, ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, ErrDuplicateBooking):
		return "duplicate"
	case errors.Is(err, ErrBookingCancelled), errors.Is(err, ErrInvalidTransition):
		return "invalid_state"
	default:
		return "error"
	}
}
