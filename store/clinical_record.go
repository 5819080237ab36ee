package store

import "context"

// RecordSection identifies one of the five freeform text sections of a
// clinical record. Integration appends to sections, never overwrites them.
type RecordSection string

const (
	RecordSectionSubjective RecordSection = "subjective"
	RecordSectionObjective  RecordSection = "objective"
	RecordSectionAssessment RecordSection = "assessment"
	RecordSectionPlan       RecordSection = "plan"
	RecordSectionNotes      RecordSection = "notes"
)

// ClinicalRecord is the structured record for one visit.
type ClinicalRecord struct {
	ID         int64
	UID        string
	VisitID    string
	PatientID  string
	Subjective string
	Objective  string
	Assessment string
	Plan       string
	Notes      string
	CreatedTs  int64
	UpdatedTs  int64
}

// Section returns the current text of the given section.
func (r *ClinicalRecord) Section(section RecordSection) string {
	switch section {
	case RecordSectionSubjective:
		return r.Subjective
	case RecordSectionObjective:
		return r.Objective
	case RecordSectionAssessment:
		return r.Assessment
	case RecordSectionPlan:
		return r.Plan
	default:
		return r.Notes
	}
}

// SetSection replaces the text of the given section.
func (r *ClinicalRecord) SetSection(section RecordSection, text string) {
	switch section {
	case RecordSectionSubjective:
		r.Subjective = text
	case RecordSectionObjective:
		r.Objective = text
	case RecordSectionAssessment:
		r.Assessment = text
	case RecordSectionPlan:
		r.Plan = text
	default:
		r.Notes = text
	}
}

// CreateClinicalRecord represents the input for creating a record.
type CreateClinicalRecord struct {
	UID        string
	VisitID    string
	PatientID  string
	Subjective string
	Objective  string
	Assessment string
	Plan       string
	Notes      string
	CreatedTs  int64
}

// UpdateClinicalRecord represents a partial update. Nil fields are untouched.
type UpdateClinicalRecord struct {
	ID         int64
	Subjective *string
	Objective  *string
	Assessment *string
	Plan       *string
	Notes      *string
	UpdatedTs  *int64
}

// FindClinicalRecord represents the filter for finding records.
type FindClinicalRecord struct {
	ID      *int64
	UID     *string
	VisitID *string
}

// ClinicalRecordStore defines clinical record persistence.
type ClinicalRecordStore interface {
	CreateClinicalRecord(ctx context.Context, create *CreateClinicalRecord) (*ClinicalRecord, error)
	ListClinicalRecords(ctx context.Context, find *FindClinicalRecord) ([]*ClinicalRecord, error)
	UpdateClinicalRecord(ctx context.Context, update *UpdateClinicalRecord) (*ClinicalRecord, error)
}
