package audit

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsense/clinsense/store"
)

type mockAuditEventStore struct {
	events []*store.AuditEvent
	err    error
}

func (m *mockAuditEventStore) CreateAuditEvent(_ context.Context, create *store.CreateAuditEvent) (*store.AuditEvent, error) {
	if m.err != nil {
		return nil, m.err
	}
	event := &store.AuditEvent{
		ID:        int64(len(m.events) + 1),
		Type:      create.Type,
		UserID:    create.UserID,
		VisitID:   create.VisitID,
		Metadata:  create.Metadata,
		CreatedTs: create.CreatedTs,
	}
	m.events = append(m.events, event)
	return event, nil
}

func (m *mockAuditEventStore) ListAuditEvents(_ context.Context, _ *store.FindAuditEvent) ([]*store.AuditEvent, error) {
	return m.events, nil
}

func TestLogCollectsOrderedEntries(t *testing.T) {
	r := NewRecorder(nil)

	r.Log("pipeline.started", map[string]any{"visit_id": "v-1"})
	r.Log("pipeline.finished", nil)

	entries := r.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "pipeline.started", entries[0].Event)
	assert.Equal(t, "v-1", entries[0].Details["visit_id"])
	assert.Equal(t, "pipeline.finished", entries[1].Event)
	assert.False(t, entries[0].Timestamp.After(entries[1].Timestamp))
}

func TestEntriesReturnsCopy(t *testing.T) {
	r := NewRecorder(nil)
	r.Log("a", nil)

	entries := r.Entries()
	entries[0].Event = "mutated"
	assert.Equal(t, "a", r.Entries()[0].Event)
}

func TestLogEventPersists(t *testing.T) {
	mock := &mockAuditEventStore{}
	r := NewRecorder(mock)

	event, err := r.LogEvent(context.Background(), &store.CreateAuditEvent{
		Type:    store.AuditEventSuggestionIntegrated,
		UserID:  "u-1",
		VisitID: "v-1",
	})
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, store.AuditEventSuggestionIntegrated, event.Type)
	require.Len(t, mock.events, 1)

	// The durable event is mirrored into the in-memory trail.
	entries := r.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, store.AuditEventSuggestionIntegrated, entries[0].Event)
}

func TestLogEventStoreFailure(t *testing.T) {
	mock := &mockAuditEventStore{err: errors.New("disk full")}
	r := NewRecorder(mock)

	_, err := r.LogEvent(context.Background(), &store.CreateAuditEvent{Type: "x"})
	assert.Error(t, err)
	// The in-memory entry is still recorded.
	assert.Len(t, r.Entries(), 1)
}

func TestLogEventNilStore(t *testing.T) {
	r := NewRecorder(nil)

	event, err := r.LogEvent(context.Background(), &store.CreateAuditEvent{Type: "x"})
	assert.NoError(t, err)
	assert.Nil(t, event)
}
