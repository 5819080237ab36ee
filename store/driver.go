package store

import "context"

// Driver is an interface for database drivers. Both SQLite and Postgres
// implement the full set of pipeline stores.
type Driver interface {
	MemoryBlockStore
	ClinicalRecordStore
	AuditEventStore
	UsageMetricStore
	SuggestionFeedbackStore

	// Migrate creates the schema if it does not exist yet.
	Migrate(ctx context.Context) error

	Close() error
}
