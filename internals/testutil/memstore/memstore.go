// Package memstore is an in-memory datastore for service tests. A
// transaction holds one global lock, which stands in for the row locks the
// Postgres stores take, and a failed transaction restores the previous state.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	chargeModel "horseclub_backend/internals/features/finance/charges/model"
	chargeService "horseclub_backend/internals/features/finance/charges/service"
	pricingModel "horseclub_backend/internals/features/finance/pricing/model"
	bookingModel "horseclub_backend/internals/features/training/bookings/model"
	trainingService "horseclub_backend/internals/features/training/service"
	slotModel "horseclub_backend/internals/features/training/slots/model"
	trainingModel "horseclub_backend/internals/features/training/trainings/model"
)

type DB struct {
	mu sync.Mutex

	slots     map[uuid.UUID]slotModel.TrainingSlot
	bookings  map[uuid.UUID]bookingModel.TrainingBooking
	trainings map[uuid.UUID]trainingModel.Training
	charges   map[uuid.UUID]chargeModel.BillingCharge
	rules     []pricingModel.PricingRule

	// Injected failures for rollback tests.
	FailCreateTraining error
	FailCreateCharge   error
}

func New() *DB {
	return &DB{
		slots:     map[uuid.UUID]slotModel.TrainingSlot{},
		bookings:  map[uuid.UUID]bookingModel.TrainingBooking{},
		trainings: map[uuid.UUID]trainingModel.Training{},
		charges:   map[uuid.UUID]chargeModel.BillingCharge{},
	}
}

type snapshot struct {
	slots     map[uuid.UUID]slotModel.TrainingSlot
	bookings  map[uuid.UUID]bookingModel.TrainingBooking
	trainings map[uuid.UUID]trainingModel.Training
	charges   map[uuid.UUID]chargeModel.BillingCharge
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *DB) snapshot() snapshot {
	return snapshot{
		slots:     cloneMap(d.slots),
		bookings:  cloneMap(d.bookings),
		trainings: cloneMap(d.trainings),
		charges:   cloneMap(d.charges),
	}
}

func (d *DB) restore(s snapshot) {
	d.slots, d.bookings, d.trainings, d.charges = s.slots, s.bookings, s.trainings, s.charges
}

// inTx runs fn under the global lock and rolls back on error.
func (d *DB) inTx(fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	snap := d.snapshot()
	if err := fn(); err != nil {
		d.restore(snap)
		return err
	}
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

/* ===================== fixtures & inspection ===================== */

func (d *DB) AddSlot(s slotModel.TrainingSlot) slotModel.TrainingSlot {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = constants.SlotOpen
	}
	d.slots[s.ID] = s
	return s
}

func (d *DB) AddRule(r pricingModel.PricingRule) pricingModel.PricingRule {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Currency == "" {
		r.Currency = "EUR"
	}
	d.rules = append(d.rules, r)
	return r
}

func (d *DB) AddCharge(c chargeModel.BillingCharge) chargeModel.BillingCharge {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	d.charges[c.ID] = c
	return c
}

func (d *DB) AddTraining(t trainingModel.Training) trainingModel.Training {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	d.trainings[t.ID] = t
	return t
}

func (d *DB) Booking(id uuid.UUID) (bookingModel.TrainingBooking, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.bookings[id]
	return b, ok
}

func (d *DB) Training(id uuid.UUID) (trainingModel.Training, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.trainings[id]
	return t, ok
}

func (d *DB) Charge(id uuid.UUID) (chargeModel.BillingCharge, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.charges[id]
	return c, ok
}

func (d *DB) Counts() (bookings, trainings, charges int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bookings), len(d.trainings), len(d.charges)
}

func (d *DB) ActiveBookings(slotID uuid.UUID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.countActive(slotID)
}

func (d *DB) countActive(slotID uuid.UUID) int {
	n := 0
	for _, b := range d.bookings {
		if b.SlotID == slotID && b.Status == constants.BookingBooked {
			n++
		}
	}
	return n
}

// ActiveRules implements the pricing rule source outside a transaction.
func (d *DB) ActiveRules(_ context.Context, currency string) ([]pricingModel.PricingRule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeRules(currency), nil
}

func (d *DB) activeRules(currency string) []pricingModel.PricingRule {
	out := make([]pricingModel.PricingRule, 0, len(d.rules))
	for _, r := range d.rules {
		if r.IsActive && strings.EqualFold(r.Currency, currency) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

/* ===================== training store ===================== */

// TrainingStore adapts the DB to the booking flow's Store.
func (d *DB) TrainingStore() trainingService.Store { return trainingStore{d} }

type trainingStore struct{ d *DB }

func (s trainingStore) InTx(_ context.Context, fn func(tx trainingService.Tx) error) error {
	return s.d.inTx(func() error { return fn(trainingTx{s.d}) })
}

type trainingTx struct{ d *DB }

func (t trainingTx) ActiveRules(_ context.Context, currency string) ([]pricingModel.PricingRule, error) {
	return t.d.activeRules(currency), nil
}

func (t trainingTx) LockSlot(ctx context.Context, id uuid.UUID) (*slotModel.TrainingSlot, error) {
	return t.GetSlot(ctx, id)
}

func (t trainingTx) GetSlot(_ context.Context, id uuid.UUID) (*slotModel.TrainingSlot, error) {
	s, ok := t.d.slots[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (t trainingTx) CountActiveBookings(_ context.Context, slotID uuid.UUID) (int64, error) {
	return int64(t.d.countActive(slotID)), nil
}

func (t trainingTx) FindOpenBooking(_ context.Context, slotID, horseID, riderID uuid.UUID) (*bookingModel.TrainingBooking, error) {
	for _, b := range t.d.bookings {
		if b.SlotID == slotID && b.HorseID == horseID && b.RiderID == riderID && b.Status != constants.BookingCancelled {
			return &b, nil
		}
	}
	return nil, nil
}

func (t trainingTx) CreateBooking(_ context.Context, b *bookingModel.TrainingBooking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	t.d.bookings[b.ID] = *b
	return nil
}

func (t trainingTx) LockBooking(_ context.Context, id uuid.UUID) (*bookingModel.TrainingBooking, error) {
	b, ok := t.d.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &b, nil
}

func (t trainingTx) SaveBooking(_ context.Context, b *bookingModel.TrainingBooking) error {
	if _, ok := t.d.bookings[b.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	t.d.bookings[b.ID] = *b
	return nil
}

func (t trainingTx) FindTraining(_ context.Context, id uuid.UUID) (*trainingModel.Training, error) {
	tr, ok := t.d.trainings[id]
	if !ok {
		return nil, nil
	}
	return &tr, nil
}

func (t trainingTx) FindTrainingBySourceBooking(_ context.Context, bookingID uuid.UUID) (*trainingModel.Training, error) {
	for _, tr := range t.d.trainings {
		if tr.SourceBookingID != nil && *tr.SourceBookingID == bookingID {
			return &tr, nil
		}
	}
	return nil, nil
}

func (t trainingTx) CreateTraining(_ context.Context, tr *trainingModel.Training) error {
	if t.d.FailCreateTraining != nil {
		return t.d.FailCreateTraining
	}
	if tr.SourceBookingID != nil {
		for _, x := range t.d.trainings {
			if x.SourceBookingID != nil && *x.SourceBookingID == *tr.SourceBookingID {
				return uniqueViolation("uq_trainings_source_booking")
			}
		}
	}
	if tr.ID == uuid.Nil {
		tr.ID = uuid.New()
	}
	t.d.trainings[tr.ID] = *tr
	return nil
}

func (t trainingTx) SyncTrainingBilling(_ context.Context, trainingID uuid.UUID, status string, chargeID uuid.UUID) error {
	tr, ok := t.d.trainings[trainingID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	tr.BillingStatus = status
	tr.BillingChargeID = &chargeID
	t.d.trainings[trainingID] = tr
	return nil
}

func (t trainingTx) FindChargeForBooking(_ context.Context, bookingID, trainingID uuid.UUID) (*chargeModel.BillingCharge, error) {
	for _, c := range t.d.charges {
		if (c.BookingID != nil && *c.BookingID == bookingID) || (c.TrainingID != nil && *c.TrainingID == trainingID) {
			return &c, nil
		}
	}
	return nil, nil
}

func (t trainingTx) CreateCharge(_ context.Context, c *chargeModel.BillingCharge) error {
	if t.d.FailCreateCharge != nil {
		return t.d.FailCreateCharge
	}
	for _, x := range t.d.charges {
		if c.BookingID != nil && x.BookingID != nil && *x.BookingID == *c.BookingID {
			return uniqueViolation("uq_billing_charges_booking")
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	t.d.charges[c.ID] = *c
	return nil
}

/* ===================== charge store ===================== */

// ChargeStore adapts the DB to the charge lifecycle's Store.
func (d *DB) ChargeStore() chargeService.Store { return chargeStore{d} }

type chargeStore struct{ d *DB }

func (s chargeStore) InTx(_ context.Context, fn func(tx chargeService.Tx) error) error {
	return s.d.inTx(func() error { return fn(chargeTx{s.d}) })
}

type chargeTx struct{ d *DB }

func (t chargeTx) LockCharge(_ context.Context, id uuid.UUID) (*chargeModel.BillingCharge, error) {
	c, ok := t.d.charges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (t chargeTx) SaveCharge(_ context.Context, c *chargeModel.BillingCharge, _ ...string) error {
	if _, ok := t.d.charges[c.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	t.d.charges[c.ID] = *c
	return nil
}

func (t chargeTx) DeleteCharge(_ context.Context, id uuid.UUID) error {
	delete(t.d.charges, id)
	return nil
}

func (t chargeTx) SetTrainingBilling(_ context.Context, trainingID uuid.UUID, status string, chargeID *uuid.UUID) error {
	tr, ok := t.d.trainings[trainingID]
	if !ok {
		return nil
	}
	tr.BillingStatus = status
	tr.BillingChargeID = chargeID
	t.d.trainings[trainingID] = tr
	return nil
}
