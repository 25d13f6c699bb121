package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	notifService "horseclub_backend/internals/features/notifications/service"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/metrics"
)

var (
	ErrChargeNotFound    = errors.New("charge not found")
	ErrPayVoidedCharge   = errors.New("cannot pay a voided charge")
	ErrAlreadyVoid       = errors.New("charge is already void")
	ErrInvalidPaidMethod = errors.New("paid_method must be one of cash, card, bank, transfer, other")
	ErrDeletePaidCharge  = errors.New("paid charges cannot be deleted")
)

const entityType = "billing_charge"

type Service struct {
	Store  Store
	Audit  auditService.Auditor
	Events notifService.Publisher
	Now    func() time.Time
}

func New(store Store, audit auditService.Auditor, events notifService.Publisher) *Service {
	if audit == nil {
		audit = auditService.Discard{}
	}
	if events == nil {
		events = notifService.Nop{}
	}
	return &Service{
		Store:  store,
		Audit:  audit,
		Events: events,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// MarkPaidInput: PaidMethod is checked by MarkPaid after the charge state,
// so a retry on a paid charge needs no body.
type MarkPaidInput struct {
	PaidMethod    string  `json:"paid_method" validate:"omitempty,max=20"`
	PaidReference *string `json:"paid_reference" validate:"omitempty,max=120"`
}

type PatchInput struct {
	Note          *string `json:"note" validate:"omitempty,max=2000"`
	PaidReference *string `json:"paid_reference" validate:"omitempty,max=120"`
}

func loadLocked(ctx context.Context, tx Tx, id uuid.UUID) (*chargeModel.BillingCharge, error) {
	c, err := tx.LockCharge(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChargeNotFound
		}
		return nil, errors.Wrap(err, "load charge")
	}
	return c, nil
}

// MarkPaid settles a charge. Paying a paid charge returns it unchanged with
// idempotent=true and writes no audit row.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID, in MarkPaidInput, actor helper.Actor) (*chargeModel.BillingCharge, bool, error) {
	method := strings.ToLower(strings.TrimSpace(in.PaidMethod))

	var (
		charge     *chargeModel.BillingCharge
		idempotent bool
		entry      *auditService.Entry
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := loadLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		charge = c

		switch c.Status {
		case constants.ChargePaid:
			idempotent = true
			return nil
		case constants.ChargeVoid:
			return ErrPayVoidedCharge
		}
		if !constants.IsPaidMethod(method) {
			return ErrInvalidPaidMethod
		}

		now := s.Now()
		ref := helper.TrimPtr(in.PaidReference)
		diff := map[string]auditService.FieldChange{
			"status":         {From: c.Status, To: constants.ChargePaid},
			"paid_method":    {From: c.PaidMethod, To: method},
			"paid_reference": {From: c.PaidReference, To: ref},
		}
		before := *c

		c.Status = constants.ChargePaid
		c.PaidAt = &now
		c.PaidMethod = &method
		c.PaidReference = ref
		if err := tx.SaveCharge(ctx, c, "status", "paid_at", "paid_method", "paid_reference"); err != nil {
			return errors.Wrap(err, "update charge")
		}
		if c.TrainingID != nil {
			if err := tx.SetTrainingBilling(ctx, *c.TrainingID, constants.ChargePaid, &c.ID); err != nil {
				return errors.Wrap(err, "cascade training billing")
			}
		}

		entry = &auditService.Entry{
			Action:     auditService.ActionMarkPaid,
			EntityType: entityType,
			EntityID:   &c.ID,
			Actor:      actor,
			Before:     before,
			After:      *c,
			Diff:       diff,
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if entry != nil {
		metrics.ChargeTransitionsTotal.WithLabelValues("paid").Inc()
		s.Audit.Log(ctx, *entry)
		s.Events.Publish(ctx, notifService.Event{
			Key:        notifService.KeyChargePaid,
			EntityType: entityType,
			EntityID:   &charge.ID,
			Title:      "Charge paid (" + method + ")",
			Payload: map[string]any{
				"amount_cents": charge.AmountCents,
				"currency":     charge.Currency,
				"paid_method":  method,
			},
		})
	}
	return charge, idempotent, nil
}

// Void cancels a charge (unpaid or paid). Void is terminal.
func (s *Service) Void(ctx context.Context, id uuid.UUID, reason *string, actor helper.Actor) (*chargeModel.BillingCharge, error) {
	var (
		charge *chargeModel.BillingCharge
		before chargeModel.BillingCharge
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := loadLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if c.Status == constants.ChargeVoid {
			return ErrAlreadyVoid
		}
		before = *c

		c.Status = constants.ChargeVoid
		if r := helper.TrimPtr(reason); r != nil {
			c.Note = appendNote(c.Note, "void: "+*r)
		}
		if err := tx.SaveCharge(ctx, c, "status", "note"); err != nil {
			return errors.Wrap(err, "update charge")
		}
		if c.TrainingID != nil {
			if err := tx.SetTrainingBilling(ctx, *c.TrainingID, constants.ChargeVoid, &c.ID); err != nil {
				return errors.Wrap(err, "cascade training billing")
			}
		}
		charge = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ChargeTransitionsTotal.WithLabelValues("voided").Inc()
	s.Audit.Log(ctx, auditService.Entry{
		Action:     auditService.ActionVoid,
		EntityType: entityType,
		EntityID:   &charge.ID,
		Actor:      actor,
		Before:     before,
		After:      *charge,
	})
	s.Events.Publish(ctx, notifService.Event{
		Key:        notifService.KeyChargeVoided,
		EntityType: entityType,
		EntityID:   &charge.ID,
		Title:      "Charge voided",
		Payload:    map[string]any{"amount_cents": charge.AmountCents, "currency": charge.Currency},
	})
	return charge, nil
}

// Update edits the free-text fields. The amount stays frozen.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in PatchInput, actor helper.Actor) (*chargeModel.BillingCharge, error) {
	var (
		charge *chargeModel.BillingCharge
		before chargeModel.BillingCharge
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := loadLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		before = *c

		cols := make([]string, 0, 2)
		if in.Note != nil {
			c.Note = helper.TrimPtr(in.Note)
			cols = append(cols, "note")
		}
		if in.PaidReference != nil {
			c.PaidReference = helper.TrimPtr(in.PaidReference)
			cols = append(cols, "paid_reference")
		}
		charge = c
		if len(cols) == 0 {
			return nil
		}
		return errors.Wrap(tx.SaveCharge(ctx, c, cols...), "update charge")
	})
	if err != nil {
		return nil, err
	}

	if diff := auditService.BuildDiff(auditService.ToMap(before), auditService.ToMap(*charge)); diff != nil {
		s.Audit.Log(ctx, auditService.Entry{
			Action:     auditService.ActionUpdate,
			EntityType: entityType,
			EntityID:   &charge.ID,
			Actor:      actor,
			Before:     before,
			After:      *charge,
			Diff:       diff,
		})
	}
	return charge, nil
}

// Delete removes an unpaid or void charge and detaches it from its training.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor helper.Actor) (*chargeModel.BillingCharge, error) {
	var charge *chargeModel.BillingCharge
	err := s.Store.InTx(ctx, func(tx Tx) error {
		c, err := loadLocked(ctx, tx, id)
		if err != nil {
			return err
		}
		if c.Status == constants.ChargePaid {
			return ErrDeletePaidCharge
		}
		if c.TrainingID != nil {
			if err := tx.SetTrainingBilling(ctx, *c.TrainingID, constants.BillingNone, nil); err != nil {
				return errors.Wrap(err, "detach training billing")
			}
		}
		if err := tx.DeleteCharge(ctx, c.ID); err != nil {
			return errors.Wrap(err, "delete charge")
		}
		charge = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Audit.Log(ctx, auditService.Entry{
		Action:     auditService.ActionDelete,
		EntityType: entityType,
		EntityID:   &charge.ID,
		Actor:      actor,
		Before:     *charge,
	})
	return charge, nil
}

func appendNote(note *string, line string) *string {
	if note == nil || strings.TrimSpace(*note) == "" {
		return &line
	}
	s := *note + "\n" + line
	return &s
}
