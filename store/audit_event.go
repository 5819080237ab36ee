package store

import "context"

// Audit event types emitted by the pipeline. The log is append-only and is
// the source of truth for "did X happen"; events are never mutated.
const (
	AuditEventSuggestionIntegrated = "suggestion_integrated"
	AuditEventSuggestionsGenerated = "suggestions_generated"
	AuditEventDangerousFeedback    = "suggestion.feedback.dangerous"
)

// AuditEvent is one durable audit log entry.
type AuditEvent struct {
	ID        int64
	Type      string
	UserID    string
	VisitID   string
	Metadata  map[string]any
	CreatedTs int64
}

// CreateAuditEvent represents the input for appending an audit event.
type CreateAuditEvent struct {
	Type      string
	UserID    string
	VisitID   string
	Metadata  map[string]any
	CreatedTs int64
}

// FindAuditEvent represents the filter for listing audit events.
type FindAuditEvent struct {
	Type    *string
	UserID  *string
	VisitID *string
	Limit   *int
}

// AuditEventStore defines append-only audit persistence. There is no update
// or delete; corrections are expressed as later events.
type AuditEventStore interface {
	CreateAuditEvent(ctx context.Context, create *CreateAuditEvent) (*AuditEvent, error)
	ListAuditEvents(ctx context.Context, find *FindAuditEvent) ([]*AuditEvent, error)
}
