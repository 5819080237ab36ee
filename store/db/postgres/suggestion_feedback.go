package postgres

import (
	"context"
	"fmt"

	"github.com/clinsense/clinsense/store"
)

func (d *DB) UpsertSuggestionFeedback(ctx context.Context, upsert *store.UpsertSuggestionFeedback) (*store.SuggestionFeedback, error) {
	stmt := `
		INSERT INTO suggestion_feedback (suggestion_id, user_id, visit_id, feedback_type, created_ts)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (suggestion_id, user_id) DO UPDATE SET
			visit_id = EXCLUDED.visit_id,
			feedback_type = EXCLUDED.feedback_type,
			created_ts = EXCLUDED.created_ts
		RETURNING id, suggestion_id, user_id, visit_id, feedback_type, created_ts
	`
	var feedback store.SuggestionFeedback
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.SuggestionID,
		upsert.UserID,
		upsert.VisitID,
		upsert.Type,
		upsert.CreatedTs,
	).Scan(
		&feedback.ID,
		&feedback.SuggestionID,
		&feedback.UserID,
		&feedback.VisitID,
		&feedback.Type,
		&feedback.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert suggestion feedback: %w", err)
	}
	return &feedback, nil
}

func (d *DB) ListSuggestionFeedback(ctx context.Context, find *store.FindSuggestionFeedback) ([]*store.SuggestionFeedback, error) {
	query := `
		SELECT id, suggestion_id, user_id, visit_id, feedback_type, created_ts
		FROM suggestion_feedback
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if find.SuggestionID != nil {
		query += fmt.Sprintf(" AND suggestion_id = $%d", argIndex)
		args = append(args, *find.SuggestionID)
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
	}

	query += " ORDER BY created_ts DESC, id DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestion feedback: %w", err)
	}
	defer rows.Close()

	var feedbacks []*store.SuggestionFeedback
	for rows.Next() {
		var feedback store.SuggestionFeedback
		if err := rows.Scan(
			&feedback.ID,
			&feedback.SuggestionID,
			&feedback.UserID,
			&feedback.VisitID,
			&feedback.Type,
			&feedback.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion feedback: %w", err)
		}
		feedbacks = append(feedbacks, &feedback)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return feedbacks, nil
}
