package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/clinsense/clinsense/store"
)

// CreateAuditEvent appends an audit event. The table is append-only; no
// update or delete statements exist for it.
func (d *DB) CreateAuditEvent(ctx context.Context, create *store.CreateAuditEvent) (*store.AuditEvent, error) {
	metadata, err := marshalJSONMap(create.Metadata)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO audit_event (type, user_id, visit_id, metadata, created_ts)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	event := store.AuditEvent{
		Type:      create.Type,
		UserID:    create.UserID,
		VisitID:   create.VisitID,
		Metadata:  create.Metadata,
		CreatedTs: create.CreatedTs,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.Type,
		create.UserID,
		create.VisitID,
		metadata,
		create.CreatedTs,
	).Scan(&event.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create audit event")
	}
	return &event, nil
}

// ListAuditEvents lists audit events, newest first.
func (d *DB) ListAuditEvents(ctx context.Context, find *store.FindAuditEvent) ([]*store.AuditEvent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.Type != nil {
		where, args = append(where, "type = ?"), append(args, *find.Type)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.VisitID != nil {
		where, args = append(where, "visit_id = ?"), append(args, *find.VisitID)
	}

	query := `SELECT id, type, user_id, visit_id, metadata, created_ts
		FROM audit_event
		WHERE ` + joinWhere(where) + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit events")
	}
	defer rows.Close()

	var events []*store.AuditEvent
	for rows.Next() {
		var event store.AuditEvent
		var metadata string
		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.UserID,
			&event.VisitID,
			&metadata,
			&event.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan audit event")
		}
		if event.Metadata, err = unmarshalJSONMap(metadata); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
