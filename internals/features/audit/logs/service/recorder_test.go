package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditModel "horseclub_backend/internals/features/audit/logs/model"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/metrics"
)

type memSink struct {
	mu   sync.Mutex
	rows []*auditModel.AuditLog
	err  error
}

func (s *memSink) Insert(_ context.Context, row *auditModel.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}

func TestRecorder_WritesRowsWithDiff(t *testing.T) {
	sink := &memSink{}
	rec := NewRecorder(sink, 8)

	id := uuid.New()
	actorID := uuid.New()
	rec.Log(context.Background(), Entry{
		Action:     ActionUpdate,
		EntityType: "horse",
		EntityID:   &id,
		Actor:      helper.Actor{ID: &actorID, Name: "Jana", IP: "10.0.0.1"},
		Before:     map[string]any{"name": "Bella", "is_active": true},
		After:      map[string]any{"name": "Bella II", "is_active": true},
	})
	rec.Close()

	require.Len(t, sink.rows, 1)
	row := sink.rows[0]
	assert.Equal(t, "update", row.Action)
	assert.Equal(t, &id, row.EntityID)
	assert.Equal(t, &actorID, row.ActorID)
	require.NotNil(t, row.ActorName)
	assert.Equal(t, "Jana", *row.ActorName)
	assert.JSONEq(t, `{"name":{"from":"Bella","to":"Bella II"}}`, string(row.Diff))
	assert.Nil(t, row.UserAgent)
}

func TestRecorder_CreateHasNoDiff(t *testing.T) {
	sink := &memSink{}
	rec := NewRecorder(sink, 8)
	rec.Log(context.Background(), Entry{Action: ActionCreate, EntityType: "rider", After: map[string]any{"first_name": "Eva"}})
	rec.Close()

	require.Len(t, sink.rows, 1)
	assert.Nil(t, sink.rows[0].BeforeData)
	assert.Nil(t, sink.rows[0].Diff)
	assert.JSONEq(t, `{"first_name":"Eva"}`, string(sink.rows[0].AfterData))
}

func TestRecorder_FailuresAreSwallowed(t *testing.T) {
	sink := &memSink{err: errors.New("relation audit_logs does not exist")}
	rec := NewRecorder(sink, 8)
	failed := metrics.AuditWriteFailures.WithLabelValues("insert")
	before := testutil.ToFloat64(failed)

	assert.NotPanics(t, func() {
		rec.Log(context.Background(), Entry{Action: ActionDelete, EntityType: "horse"})
		rec.Close()
	})
	assert.Equal(t, before+1, testutil.ToFloat64(failed))

	// after Close entries are dropped, not panicking on the closed channel
	assert.NotPanics(t, func() {
		rec.Log(context.Background(), Entry{Action: ActionDelete, EntityType: "horse"})
	})
	rec.Close()
}
