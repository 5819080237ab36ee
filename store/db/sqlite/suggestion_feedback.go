package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/clinsense/clinsense/store"
)

// UpsertSuggestionFeedback records reviewer feedback. A later upsert for the
// same (suggestion, user) supersedes the earlier row.
func (d *DB) UpsertSuggestionFeedback(ctx context.Context, upsert *store.UpsertSuggestionFeedback) (*store.SuggestionFeedback, error) {
	stmt := `
		INSERT INTO suggestion_feedback (suggestion_id, user_id, visit_id, feedback_type, created_ts)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (suggestion_id, user_id) DO UPDATE SET
			visit_id = excluded.visit_id,
			feedback_type = excluded.feedback_type,
			created_ts = excluded.created_ts
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
		return nil, errors.Wrap(err, "failed to upsert suggestion feedback")
	}
	return &feedback, nil
}

// ListSuggestionFeedback lists feedback rows, newest first.
func (d *DB) ListSuggestionFeedback(ctx context.Context, find *store.FindSuggestionFeedback) ([]*store.SuggestionFeedback, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.SuggestionID != nil {
		where, args = append(where, "suggestion_id = ?"), append(args, *find.SuggestionID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.VisitID != nil {
		where, args = append(where, "visit_id = ?"), append(args, *find.VisitID)
	}

	query := `SELECT id, suggestion_id, user_id, visit_id, feedback_type, created_ts
		FROM suggestion_feedback
		WHERE ` + joinWhere(where) + `
		ORDER BY created_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list suggestion feedback")
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
			return nil, errors.Wrap(err, "failed to scan suggestion feedback")
		}
		feedbacks = append(feedbacks, &feedback)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return feedbacks, nil
}
