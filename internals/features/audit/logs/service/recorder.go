package service

import (
	"context"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	auditModel "horseclub_backend/internals/features/audit/logs/model"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/metrics"
)

// Audit actions.
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionBook     = "book"
	ActionCancel   = "cancel"
	ActionMark     = "mark"
	ActionMarkPaid = "mark_paid"
	ActionVoid     = "void"
)

// Entry describes one mutation. Before/After may be models, DTOs or maps.
// Diff overrides the computed diff when set.
type Entry struct {
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	Actor      helper.Actor
	Before     any
	After      any
	Diff       map[string]FieldChange
}

// Auditor is what services depend on. Log never fails and never blocks.
type Auditor interface {
	Log(ctx context.Context, e Entry)
}

// Sink persists a prepared row.
type Sink interface {
	Insert(ctx context.Context, row *auditModel.AuditLog) error
}

type GormSink struct{ DB *gorm.DB }

func (s GormSink) Insert(ctx context.Context, row *auditModel.AuditLog) error {
	return s.DB.WithContext(ctx).Create(row).Error
}

// Recorder writes audit rows from a background worker.
type Recorder struct {
	sink    Sink
	ch      chan *auditModel.AuditLog
	log     *logrus.Entry
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewRecorder(sink Sink, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	r := &Recorder{
		sink:    sink,
		ch:      make(chan *auditModel.AuditLog, buffer),
		log:     configs.Log.WithField("component", "audit"),
		timeout: 5 * time.Second,
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *Recorder) Log(_ context.Context, e Entry) {
	row, err := buildRow(e)
	if err != nil {
		metrics.AuditWriteFailures.WithLabelValues("encode").Inc()
		r.log.WithError(err).WithField("entity_type", e.EntityType).Warn("audit entry dropped")
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		metrics.AuditWriteFailures.WithLabelValues("closed").Inc()
		return
	}
	select {
	case r.ch <- row:
	default:
		metrics.AuditWriteFailures.WithLabelValues("buffer_full").Inc()
		r.log.WithFields(logrus.Fields{
			"action":      row.Action,
			"entity_type": row.EntityType,
		}).Warn("audit buffer full, entry dropped")
	}
}

// Close stops accepting entries and waits until the buffer is drained.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.ch)
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for row := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.sink.Insert(ctx, row); err != nil {
			metrics.AuditWriteFailures.WithLabelValues("insert").Inc()
			r.log.WithError(err).WithFields(logrus.Fields{
				"action":      row.Action,
				"entity_type": row.EntityType,
				"entity_id":   row.EntityID,
			}).Error("audit insert failed")
		}
		cancel()
	}
}

func buildRow(e Entry) (*auditModel.AuditLog, error) {
	before, after := ToMap(e.Before), ToMap(e.After)
	diff := e.Diff
	if diff == nil {
		diff = BuildDiff(before, after)
	}

	row := &auditModel.AuditLog{
		CreatedAt:  time.Now().UTC(),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ActorID:    e.Actor.ID,
		ActorName:  nonEmpty(e.Actor.Name),
		IP:         nonEmpty(e.Actor.IP),
		UserAgent:  nonEmpty(e.Actor.UserAgent),
	}

	var err error
	if row.BeforeData, err = encodeJSON(before); err != nil {
		return nil, err
	}
	if row.AfterData, err = encodeJSON(after); err != nil {
		return nil, err
	}
	if diff != nil {
		if row.Diff, err = encodeJSON(diff); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func encodeJSON[T any](v T) (datatypes.JSON, error) {
	b, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return datatypes.JSON(b), nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Log(context.Context, Entry) {}
