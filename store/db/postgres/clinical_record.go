package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinsense/clinsense/store"
)

func (d *DB) CreateClinicalRecord(ctx context.Context, create *store.CreateClinicalRecord) (*store.ClinicalRecord, error) {
	stmt := `
		INSERT INTO clinical_record (uid, visit_id, patient_id, subjective, objective, assessment, plan, notes, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, uid, visit_id, patient_id, subjective, objective, assessment, plan, notes, created_ts, updated_ts
	`
	var record store.ClinicalRecord
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.VisitID,
		create.PatientID,
		create.Subjective,
		create.Objective,
		create.Assessment,
		create.Plan,
		create.Notes,
		create.CreatedTs,
		create.CreatedTs,
	).Scan(
		&record.ID,
		&record.UID,
		&record.VisitID,
		&record.PatientID,
		&record.Subjective,
		&record.Objective,
		&record.Assessment,
		&record.Plan,
		&record.Notes,
		&record.CreatedTs,
		&record.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create clinical record: %w", err)
	}
	return &record, nil
}

func (d *DB) ListClinicalRecords(ctx context.Context, find *store.FindClinicalRecord) ([]*store.ClinicalRecord, error) {
	query := `
		SELECT id, uid, visit_id, patient_id, subjective, objective, assessment, plan, notes, created_ts, updated_ts
		FROM clinical_record
		WHERE 1=1
	`
	var args []interface{}
	argIndex := 1

	if find.ID != nil {
		query += fmt.Sprintf(" AND id = $%d", argIndex)
		args = append(args, *find.ID)
		argIndex++
	}
	if find.UID != nil {
		query += fmt.Sprintf(" AND uid = $%d", argIndex)
		args = append(args, *find.UID)
		argIndex++
	}
	if find.VisitID != nil {
		query += fmt.Sprintf(" AND visit_id = $%d", argIndex)
		args = append(args, *find.VisitID)
	}

	query += " ORDER BY created_ts DESC"

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinical records: %w", err)
	}
	defer rows.Close()

	var records []*store.ClinicalRecord
	for rows.Next() {
		var record store.ClinicalRecord
		if err := rows.Scan(
			&record.ID,
			&record.UID,
			&record.VisitID,
			&record.PatientID,
			&record.Subjective,
			&record.Objective,
			&record.Assessment,
			&record.Plan,
			&record.Notes,
			&record.CreatedTs,
			&record.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan clinical record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (d *DB) UpdateClinicalRecord(ctx context.Context, update *store.UpdateClinicalRecord) (*store.ClinicalRecord, error) {
	var set []string
	var args []interface{}
	argIndex := 1

	appendSet := func(column string, value interface{}) {
		set = append(set, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if update.Subjective != nil {
		appendSet("subjective", *update.Subjective)
	}
	if update.Objective != nil {
		appendSet("objective", *update.Objective)
	}
	if update.Assessment != nil {
		appendSet("assessment", *update.Assessment)
	}
	if update.Plan != nil {
		appendSet("plan", *update.Plan)
	}
	if update.Notes != nil {
		appendSet("notes", *update.Notes)
	}
	if update.UpdatedTs != nil {
		appendSet("updated_ts", *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	args = append(args, update.ID)

	stmt := fmt.Sprintf(`
		UPDATE clinical_record SET %s WHERE id = $%d
		RETURNING id, uid, visit_id, patient_id, subjective, objective, assessment, plan, notes, created_ts, updated_ts
	`, strings.Join(set, ", "), argIndex)

	var record store.ClinicalRecord
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&record.ID,
		&record.UID,
		&record.VisitID,
		&record.PatientID,
		&record.Subjective,
		&record.Objective,
		&record.Assessment,
		&record.Plan,
		&record.Notes,
		&record.CreatedTs,
		&record.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to update clinical record: %w", err)
	}
	return &record, nil
}
