package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/clinsense/clinsense/internal/profile"
	"github.com/clinsense/clinsense/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the SQLite database described by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode plus a generous busy timeout keeps the single-writer
	// integration path from tripping over concurrent readers.
	// With `modernc.org/sqlite` each pragma must be prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite: a single connection is optimal with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS memory_block (
	id TEXT PRIMARY KEY,
	visit_id TEXT NOT NULL,
	tier TEXT NOT NULL,
	content TEXT NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_block_visit_tier ON memory_block (visit_id, tier);

CREATE TABLE IF NOT EXISTS clinical_record (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	visit_id TEXT NOT NULL UNIQUE,
	patient_id TEXT NOT NULL DEFAULT '',
	subjective TEXT NOT NULL DEFAULT '',
	objective TEXT NOT NULL DEFAULT '',
	assessment TEXT NOT NULL DEFAULT '',
	plan TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_ts BIGINT NOT NULL,
	updated_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_event (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	type TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	visit_id TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_event_visit ON audit_event (visit_id);

CREATE TABLE IF NOT EXISTS usage_metric (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	visit_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	value INTEGER NOT NULL DEFAULT 0,
	time_saved_minutes REAL NOT NULL DEFAULT 0,
	details TEXT NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_metric_visit ON usage_metric (visit_id);

CREATE TABLE IF NOT EXISTS longitudinal_metric (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	current_visit_id TEXT NOT NULL,
	previous_visit_id TEXT NOT NULL,
	patient_id TEXT NOT NULL DEFAULT '',
	risk_level TEXT NOT NULL,
	clinical_evolution TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS suggestion_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	suggestion_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	visit_id TEXT NOT NULL DEFAULT '',
	feedback_type TEXT NOT NULL,
	created_ts BIGINT NOT NULL,
	UNIQUE (suggestion_id, user_id)
);
`

// Migrate creates the schema if it does not exist yet.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to migrate schema")
	}
	return nil
}

// marshalJSONMap serializes a metadata map for storage. A nil map is stored
// as an empty JSON object.
func marshalJSONMap(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal metadata")
	}
	return string(raw), nil
}

func unmarshalJSONMap(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal metadata")
	}
	return m, nil
}
