package postgres

import (
	"context"
	"fmt"

	"github.com/clinsense/clinsense/store"
)

func (d *DB) CreateAuditEvent(ctx context.Context, create *store.CreateAuditEvent) (*store.AuditEvent, error) {
	metadata, err := marshalJSONMap(create.Metadata)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO audit_event (type, user_id, visit_id, metadata, created_ts)
		VALUES ($1, $2, $3, $4, $5)
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
		return nil, fmt.Errorf("failed to create audit event: %w", err)
	}
	return &event, nil
}

func (d *DB) ListAuditEvents(ctx context.Context, find *store.FindAuditEvent) ([]*store.AuditEvent, error) {
	query := `
		SELECT id, type, user_id, visit_id, metadata, created_ts
		FROM audit_event
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if find.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, *find.Type)
		argIndex++
	}
	if find.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *find.UserID)
		argIndex++
	}
	if find.VisitID != nil {
		query += fmt.Sprintf(" AND visit_id = $%d", argIndex)
		args = append(args, *find.VisitID)
		argIndex++
	}

	query += " ORDER BY created_ts DESC, id DESC"
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*store.AuditEvent
	for rows.Next() {
		var event store.AuditEvent
		var metadata []byte
		if err := rows.Scan(
			&event.ID,
			&event.Type,
			&event.UserID,
			&event.VisitID,
			&metadata,
			&event.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
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
