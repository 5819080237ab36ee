package postgres

import (
	"context"
	"fmt"

	"github.com/clinsense/clinsense/store"
)

func (d *DB) CreateUsageMetric(ctx context.Context, create *store.CreateUsageMetric) (*store.UsageMetric, error) {
	details, err := marshalJSONMap(create.Details)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO usage_metric (visit_id, user_id, type, value, time_saved_minutes, details, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
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
		return nil, fmt.Errorf("failed to create usage metric: %w", err)
	}
	return &metric, nil
}

func (d *DB) ListUsageMetrics(ctx context.Context, find *store.FindUsageMetric) ([]*store.UsageMetric, error) {
	query := `
		SELECT id, visit_id, user_id, type, value, time_saved_minutes, details, created_ts
		FROM usage_metric
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if find.VisitID != nil {
		query += fmt.Sprintf(" AND visit_id = $%d", argIndex)
		args = append(args, *find.VisitID)
		argIndex++
	}
	if find.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argIndex)
		args = append(args, *find.UserID)
		argIndex++
	}
	if find.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIndex)
		args = append(args, *find.Type)
		argIndex++
	}

	query += " ORDER BY created_ts ASC, id ASC"
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*store.UsageMetric
	for rows.Next() {
		var metric store.UsageMetric
		var details []byte
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
			return nil, fmt.Errorf("failed to scan usage metric: %w", err)
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

func (d *DB) CreateLongitudinalMetric(ctx context.Context, create *store.CreateLongitudinalMetric) (*store.LongitudinalMetric, error) {
	details, err := marshalJSONMap(create.Details)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO longitudinal_metric (current_visit_id, previous_visit_id, patient_id, risk_level, clinical_evolution, details, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
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
		return nil, fmt.Errorf("failed to create longitudinal metric: %w", err)
	}
	return &metric, nil
}

func (d *DB) ListLongitudinalMetrics(ctx context.Context, find *store.FindLongitudinalMetric) ([]*store.LongitudinalMetric, error) {
	query := `
		SELECT id, current_visit_id, previous_visit_id, patient_id, risk_level, clinical_evolution, details, created_ts
		FROM longitudinal_metric
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if find.CurrentVisitID != nil {
		query += fmt.Sprintf(" AND current_visit_id = $%d", argIndex)
		args = append(args, *find.CurrentVisitID)
		argIndex++
	}
	if find.PreviousVisitID != nil {
		query += fmt.Sprintf(" AND previous_visit_id = $%d", argIndex)
		args = append(args, *find.PreviousVisitID)
		argIndex++
	}
	if find.PatientID != nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argIndex)
		args = append(args, *find.PatientID)
		argIndex++
	}

	query += " ORDER BY created_ts DESC, id DESC"
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list longitudinal metrics: %w", err)
	}
	defer rows.Close()

	var metrics []*store.LongitudinalMetric
	for rows.Next() {
		var metric store.LongitudinalMetric
		var details []byte
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
			return nil, fmt.Errorf("failed to scan longitudinal metric: %w", err)
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
