// Package emr merges accepted suggestions into clinical records. Integration
// is append-only and idempotent: a suggestion already present in its target
// section is never written twice.
package emr

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/clinsense/clinsense/ai/audit"
	"github.com/clinsense/clinsense/ai/suggestion"
	"github.com/clinsense/clinsense/store"
)

// integrationMarker prefixes every integrated line, so generated content is
// visually distinct in the record and re-integration can be detected.
const integrationMarker = "🔎 "

// Engine writes suggestions into clinical records.
type Engine struct {
	records  store.ClinicalRecordStore
	metrics  store.UsageMetricStore
	recorder *audit.Recorder
}

// NewEngine creates an integration engine. metrics and recorder may be nil;
// integration then still persists but emits no samples or audit events.
func NewEngine(records store.ClinicalRecordStore, metrics store.UsageMetricStore, recorder *audit.Recorder) *Engine {
	return &Engine{records: records, metrics: metrics, recorder: recorder}
}

// SectionForSuggestion maps a suggestion type to its target record section.
// Recommendations go to the plan, warnings to the assessment, everything
// else to the notes.
func SectionForSuggestion(typ suggestion.Type) store.RecordSection {
	switch typ {
	case suggestion.TypeRecommendation:
		return store.RecordSectionPlan
	case suggestion.TypeWarning:
		return store.RecordSectionAssessment
	default:
		return store.RecordSectionNotes
	}
}

// Integrate appends the suggestion to its target section of the visit's
// record, creating the record if the visit has none yet. It returns false
// without error when the suggestion is already present. The record write is
// the unit of success; the audit event and metric sample that follow are
// best-effort.
func (e *Engine) Integrate(ctx context.Context, s *suggestion.Suggestion, visitID, userID string) (bool, error) {
	if s == nil || s.Content == "" {
		return false, errors.New("cannot integrate an empty suggestion")
	}
	if visitID == "" {
		return false, errors.New("visit id is required")
	}

	record, err := e.findOrCreateRecord(ctx, visitID)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve clinical record for visit %s", visitID)
	}

	section := SectionForSuggestion(s.Type)
	line := integrationMarker + s.Content
	existing := record.Section(section)
	if strings.Contains(existing, line) {
		slog.Info("suggestion already integrated, skipping",
			"suggestion_id", s.ID, "visit_id", visitID, "section", section)
		return false, nil
	}

	updated := line
	if existing != "" {
		updated = existing + "\n" + line
	}

	now := time.Now().Unix()
	patch := &store.UpdateClinicalRecord{ID: record.ID, UpdatedTs: &now}
	switch section {
	case store.RecordSectionSubjective:
		patch.Subjective = &updated
	case store.RecordSectionObjective:
		patch.Objective = &updated
	case store.RecordSectionAssessment:
		patch.Assessment = &updated
	case store.RecordSectionPlan:
		patch.Plan = &updated
	default:
		patch.Notes = &updated
	}
	if _, err := e.records.UpdateClinicalRecord(ctx, patch); err != nil {
		return false, errors.Wrapf(err, "failed to update clinical record %d", record.ID)
	}

	e.recordIntegration(ctx, s, visitID, userID, section)
	return true, nil
}

func (e *Engine) findOrCreateRecord(ctx context.Context, visitID string) (*store.ClinicalRecord, error) {
	records, err := e.records.ListClinicalRecords(ctx, &store.FindClinicalRecord{VisitID: &visitID})
	if err != nil {
		return nil, err
	}
	if len(records) > 0 {
		return records[0], nil
	}

	record, err := e.records.CreateClinicalRecord(ctx, &store.CreateClinicalRecord{
		UID:       shortuuid.New(),
		VisitID:   visitID,
		CreatedTs: time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}
	slog.Info("created clinical record for visit", "visit_id", visitID, "uid", record.UID)
	return record, nil
}

// recordIntegration emits the audit event and metric sample for a committed
// integration. The record is already persisted; failures here are logged
// and do not undo the integration.
func (e *Engine) recordIntegration(ctx context.Context, s *suggestion.Suggestion, visitID, userID string, section store.RecordSection) {
	now := time.Now().Unix()

	if e.recorder != nil {
		if _, err := e.recorder.LogEvent(ctx, &store.CreateAuditEvent{
			Type:    store.AuditEventSuggestionIntegrated,
			UserID:  userID,
			VisitID: visitID,
			Metadata: map[string]any{
				"suggestion_id":   s.ID,
				"suggestion_type": string(s.Type),
				"section":         string(section),
				"content":         s.Content,
				"source_block_id": s.SourceBlockID,
			},
			CreatedTs: now,
		}); err != nil {
			slog.Warn("integration audit event failed", "suggestion_id", s.ID, "err", err)
		}
	}

	if e.metrics != nil {
		if _, err := e.metrics.CreateUsageMetric(ctx, &store.CreateUsageMetric{
			VisitID: visitID,
			UserID:  userID,
			Type:    store.MetricSuggestionsIntegrated,
			Value:   1,
			Details: map[string]any{
				"suggestion_id":   s.ID,
				"suggestion_type": string(s.Type),
				"section":         string(section),
			},
			CreatedTs: now,
		}); err != nil {
			slog.Warn("integration metric failed", "suggestion_id", s.ID, "err", err)
		}
	}
}
