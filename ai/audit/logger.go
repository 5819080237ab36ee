// Package audit records what the suggestion pipeline did, both as an
// in-memory trail attached to each pipeline run and as durable audit events
// in the store.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clinsense/clinsense/store"
)

// Entry is one in-memory audit line. Entries are ordered by insertion.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Event     string         `json:"event"`
	Details   map[string]any `json:"details,omitempty"`
}

// Recorder collects an in-memory audit trail for a single pipeline run and
// mirrors every entry to the structured log. Log never fails; a recorder
// with a nil store still collects entries.
type Recorder struct {
	store store.AuditEventStore

	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates a recorder. eventStore may be nil when durable events
// are not wanted (e.g. dry runs and tests).
func NewRecorder(eventStore store.AuditEventStore) *Recorder {
	return &Recorder{store: eventStore}
}

// Log appends an in-memory entry and emits a log line. It never returns an
// error and never panics regardless of the details payload.
func (r *Recorder) Log(event string, details map[string]any) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Event:     event,
		Details:   details,
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	slog.Info("audit", "event", event, "details", details)
}

// Entries returns a copy of the collected trail in insertion order.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// LogEvent writes a durable audit event through the store in addition to
// the in-memory trail. Unlike Log, persistence failures are reported.
func (r *Recorder) LogEvent(ctx context.Context, create *store.CreateAuditEvent) (*store.AuditEvent, error) {
	r.Log(create.Type, map[string]any{
		"visit_id": create.VisitID,
		"user_id":  create.UserID,
	})

	if r.store == nil {
		return nil, nil
	}
	event, err := r.store.CreateAuditEvent(ctx, create)
	if err != nil {
		slog.Error("failed to persist audit event", "event_type", create.Type, "err", err)
		return nil, err
	}
	return event, nil
}
