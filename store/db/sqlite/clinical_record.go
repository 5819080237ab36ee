package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/clinsense/clinsense/store"
)

// CreateClinicalRecord inserts a clinical record with its five sections.
func (d *DB) CreateClinicalRecord(ctx context.Context, create *store.CreateClinicalRecord) (*store.ClinicalRecord, error) {
	stmt := `
		INSERT INTO clinical_record (uid, visit_id, patient_id, subjective, objective, assessment, plan, notes, created_ts, updated_ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
		return nil, errors.Wrap(err, "failed to create clinical record")
	}
	return &record, nil
}

// ListClinicalRecords lists clinical records.
func (d *DB) ListClinicalRecords(ctx context.Context, find *store.FindClinicalRecord) ([]*store.ClinicalRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.VisitID != nil {
		where, args = append(where, "visit_id = ?"), append(args, *find.VisitID)
	}

	query := `SELECT id, uid, visit_id, patient_id, subjective, objective, assessment, plan, notes, created_ts, updated_ts
		FROM clinical_record
		WHERE ` + joinWhere(where) + `
		ORDER BY created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clinical records")
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
			return nil, errors.Wrap(err, "failed to scan clinical record")
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// UpdateClinicalRecord applies a partial update and returns the new row.
func (d *DB) UpdateClinicalRecord(ctx context.Context, update *store.UpdateClinicalRecord) (*store.ClinicalRecord, error) {
	set, args := []string{}, []any{}

	if update.Subjective != nil {
		set, args = append(set, "subjective = ?"), append(args, *update.Subjective)
	}
	if update.Objective != nil {
		set, args = append(set, "objective = ?"), append(args, *update.Objective)
	}
	if update.Assessment != nil {
		set, args = append(set, "assessment = ?"), append(args, *update.Assessment)
	}
	if update.Plan != nil {
		set, args = append(set, "plan = ?"), append(args, *update.Plan)
	}
	if update.Notes != nil {
		set, args = append(set, "notes = ?"), append(args, *update.Notes)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}
	args = append(args, update.ID)

	stmt := "UPDATE clinical_record SET " + joinSet(set) + ` WHERE id = ?
		RETURNING id, uid, visit_id, patient_id, subjective, objective, assessment, plan, notes, created_ts, updated_ts`
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
		return nil, errors.Wrap(err, "failed to update clinical record")
	}
	return &record, nil
}

func joinSet(set []string) string {
	clause := set[0]
	for _, s := range set[1:] {
		clause += ", " + s
	}
	return clause
}
