package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/clinsense/clinsense/store"
)

// CreateUsageMetric appends a usage metric sample.
func (d *DB) CreateUsageMetric(ctx context.Context, create *store.CreateUsageMetric) (*store.UsageMetric, error) {
	details, err := marshalJSONMap(create.Details)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO usage_metric (visit_id, user_id, type, value, time_saved_minutes, details, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	metric := store.UsageMetric{
		VisitID:                   create.VisitID,
		UserID:                    create.UserID,
		Type:                      create.Type,
		Value:                     create.Value,
		EstimatedTimeSavedMinutes: create.EstimatedTimeSavedMinutes,
		Details:                   create.Details,
		CreatedTs:                 create.CreatedTs,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.VisitID,
		create.UserID,
		create.Type,
		create.Value,
		create.EstimatedTimeSavedMinutes,
		details,
		create.CreatedTs,
	).Scan(&metric.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create usage metric")
	}
	return &metric, nil
}

// ListUsageMetrics lists metric samples in append order.
func (d *DB) ListUsageMetrics(ctx context.Context, find *store.FindUsageMetric) ([]*store.UsageMetric, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.VisitID != nil {
		where, args = append(where, "visit_id = ?"), append(args, *find.VisitID)
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.Type != nil {
		where, args = append(where, "type = ?"), append(args, *find.Type)
	}

	query := `SELECT id, visit_id, user_id, type, value, time_saved_minutes, details, created_ts
		FROM usage_metric
		WHERE ` + joinWhere(where) + `
		ORDER BY created_ts ASC, id ASC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list usage metrics")
	}
	defer rows.Close()

	var metrics []*store.UsageMetric
	for rows.Next() {
		var metric store.UsageMetric
		var details string
		if err := rows.Scan(
			&metric.ID,
			&metric.VisitID,
			&metric.UserID,
			&metric.Type,
			&metric.Value,
			&metric.EstimatedTimeSavedMinutes,
			&details,
			&metric.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan usage metric")
		}
		if metric.Details, err = unmarshalJSONMap(details); err != nil {
			return nil, err
		}
		metrics = append(metrics, &metric)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metrics, nil
}

// CreateLongitudinalMetric persists a derived longitudinal comparison.
func (d *DB) CreateLongitudinalMetric(ctx context.Context, create *store.CreateLongitudinalMetric) (*store.LongitudinalMetric, error) {
	details, err := marshalJSONMap(create.Details)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO longitudinal_metric (current_visit_id, previous_visit_id, patient_id, risk_level, clinical_evolution, details, created_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	metric := store.LongitudinalMetric{
		CurrentVisitID:    create.CurrentVisitID,
		PreviousVisitID:   create.PreviousVisitID,
		PatientID:         create.PatientID,
		RiskLevelSummary:  create.RiskLevelSummary,
		ClinicalEvolution: create.ClinicalEvolution,
		Details:           create.Details,
		CreatedTs:         create.CreatedTs,
	}
	if err := d.db.QueryRowContext(ctx, stmt,
		create.CurrentVisitID,
		create.PreviousVisitID,
		create.PatientID,
		create.RiskLevelSummary,
		create.ClinicalEvolution,
		details,
		create.CreatedTs,
	).Scan(&metric.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create longitudinal metric")
	}
	return &metric, nil
}

// ListLongitudinalMetrics lists longitudinal metrics, newest first.
func (d *DB) ListLongitudinalMetrics(ctx context.Context, find *store.FindLongitudinalMetric) ([]*store.LongitudinalMetric, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.CurrentVisitID != nil {
		where, args = append(where, "current_visit_id = ?"), append(args, *find.CurrentVisitID)
	}
	if find.PreviousVisitID != nil {
		where, args = append(where, "previous_visit_id = ?"), append(args, *find.PreviousVisitID)
	}
	if find.PatientID != nil {
		where, args = append(where, "patient_id = ?"), append(args, *find.PatientID)
	}

	query := `SELECT id, current_visit_id, previous_visit_id, patient_id, risk_level, clinical_evolution, details, created_ts
		FROM longitudinal_metric
		WHERE ` + joinWhere(where) + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += " LIMIT ?"
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list longitudinal metrics")
	}
	defer rows.Close()

	var metrics []*store.LongitudinalMetric
	for rows.Next() {
		var metric store.LongitudinalMetric
		var details string
		if err := rows.Scan(
			&metric.ID,
			&metric.CurrentVisitID,
			&metric.PreviousVisitID,
			&metric.PatientID,
			&metric.RiskLevelSummary,
			&metric.ClinicalEvolution,
			&details,
			&metric.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan longitudinal metric")
		}
		if metric.Details, err = unmarshalJSONMap(details); err != nil {
			return nil, err
		}
		metrics = append(metrics, &metric)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metrics, nil
}
