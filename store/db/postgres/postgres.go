package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	// Import the Postgres driver.
	_ "github.com/lib/pq"

	"github.com/clinsense/clinsense/internal/profile"
	"github.com/clinsense/clinsense/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens the Postgres database described by the profile DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	pgDB, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	driver := DB{db: pgDB, profile: profile}

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
	metadata JSONB NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memory_block_visit_tier ON memory_block (visit_id, tier);

CREATE TABLE IF NOT EXISTS clinical_record (
	id BIGSERIAL PRIMARY KEY,
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
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL,
	user_id TEXT NOT NULL DEFAULT '',
	visit_id TEXT NOT NULL DEFAULT '',
	metadata JSONB NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_event_visit ON audit_event (visit_id);

CREATE TABLE IF NOT EXISTS usage_metric (
	id BIGSERIAL PRIMARY KEY,
	visit_id TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL,
	value INTEGER NOT NULL DEFAULT 0,
	time_saved_minutes DOUBLE PRECISION NOT NULL DEFAULT 0,
	details JSONB NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_usage_metric_visit ON usage_metric (visit_id);

CREATE TABLE IF NOT EXISTS longitudinal_metric (
	id BIGSERIAL PRIMARY KEY,
	current_visit_id TEXT NOT NULL,
	previous_visit_id TEXT NOT NULL,
	patient_id TEXT NOT NULL DEFAULT '',
	risk_level TEXT NOT NULL,
	clinical_evolution TEXT NOT NULL,
	details JSONB NOT NULL DEFAULT '{}',
	created_ts BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS suggestion_feedback (
	id BIGSERIAL PRIMARY KEY,
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

// marshalJSONMap serializes a metadata map for JSONB storage. A nil map is
// stored as an empty JSON object.
func marshalJSONMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal metadata")
	}
	return raw, nil
}

func unmarshalJSONMap(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal metadata")
	}
	return m, nil
}
