package emr

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsense/clinsense/ai/audit"
	"github.com/clinsense/clinsense/ai/suggestion"
	"github.com/clinsense/clinsense/store"
)

type mockRecordStore struct {
	records   []*store.ClinicalRecord
	nextID    int64
	createErr error
	updateErr error
}

func (m *mockRecordStore) CreateClinicalRecord(_ context.Context, create *store.CreateClinicalRecord) (*store.ClinicalRecord, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	record := &store.ClinicalRecord{
		ID:        m.nextID,
		UID:       create.UID,
		VisitID:   create.VisitID,
		PatientID: create.PatientID,
		CreatedTs: create.CreatedTs,
	}
	m.records = append(m.records, record)
	return record, nil
}

func (m *mockRecordStore) ListClinicalRecords(_ context.Context, find *store.FindClinicalRecord) ([]*store.ClinicalRecord, error) {
	var out []*store.ClinicalRecord
	for _, r := range m.records {
		if find.VisitID != nil && r.VisitID != *find.VisitID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRecordStore) UpdateClinicalRecord(_ context.Context, update *store.UpdateClinicalRecord) (*store.ClinicalRecord, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for _, r := range m.records {
		if r.ID != update.ID {
			continue
		}
		if update.Subjective != nil {
			r.Subjective = *update.Subjective
		}
		if update.Objective != nil {
			r.Objective = *update.Objective
		}
		if update.Assessment != nil {
			r.Assessment = *update.Assessment
		}
		if update.Plan != nil {
			r.Plan = *update.Plan
		}
		if update.Notes != nil {
			r.Notes = *update.Notes
		}
		if update.UpdatedTs != nil {
			r.UpdatedTs = *update.UpdatedTs
		}
		return r, nil
	}
	return nil, errors.Errorf("clinical record not found: %d", update.ID)
}

type mockMetricStore struct {
	samples []*store.UsageMetric
}

func (m *mockMetricStore) CreateUsageMetric(_ context.Context, create *store.CreateUsageMetric) (*store.UsageMetric, error) {
	metric := &store.UsageMetric{
		ID:      int64(len(m.samples) + 1),
		VisitID: create.VisitID,
		UserID:  create.UserID,
		Type:    create.Type,
		Value:   create.Value,
		Details: create.Details,
	}
	m.samples = append(m.samples, metric)
	return metric, nil
}

func (m *mockMetricStore) ListUsageMetrics(_ context.Context, _ *store.FindUsageMetric) ([]*store.UsageMetric, error) {
	return m.samples, nil
}

func (m *mockMetricStore) CreateLongitudinalMetric(_ context.Context, _ *store.CreateLongitudinalMetric) (*store.LongitudinalMetric, error) {
	return nil, nil
}

func (m *mockMetricStore) ListLongitudinalMetrics(_ context.Context, _ *store.FindLongitudinalMetric) ([]*store.LongitudinalMetric, error) {
	return nil, nil
}

type mockAuditEventStore struct {
	events []*store.AuditEvent
}

func (m *mockAuditEventStore) CreateAuditEvent(_ context.Context, create *store.CreateAuditEvent) (*store.AuditEvent, error) {
	event := &store.AuditEvent{
		ID:       int64(len(m.events) + 1),
		Type:     create.Type,
		UserID:   create.UserID,
		VisitID:  create.VisitID,
		Metadata: create.Metadata,
	}
	m.events = append(m.events, event)
	return event, nil
}

func (m *mockAuditEventStore) ListAuditEvents(_ context.Context, _ *store.FindAuditEvent) ([]*store.AuditEvent, error) {
	return m.events, nil
}

func testSuggestion(typ suggestion.Type, content string) *suggestion.Suggestion {
	return &suggestion.Suggestion{
		ID:            "sug-1",
		SourceBlockID: "blk-1",
		Type:          typ,
		Content:       content,
		Origin:        &suggestion.ContextOrigin{SourceBlock: "blk-1", Excerpt: content[:10]},
		Source:        "llm",
	}
}

func TestSectionForSuggestion(t *testing.T) {
	assert.Equal(t, store.RecordSectionPlan, SectionForSuggestion(suggestion.TypeRecommendation))
	assert.Equal(t, store.RecordSectionAssessment, SectionForSuggestion(suggestion.TypeWarning))
	assert.Equal(t, store.RecordSectionNotes, SectionForSuggestion(suggestion.TypeInfo))
	assert.Equal(t, store.RecordSectionNotes, SectionForSuggestion(suggestion.Type("unknown")))
}

func TestIntegrateCreatesRecordWhenAbsent(t *testing.T) {
	records := &mockRecordStore{}
	engine := NewEngine(records, nil, nil)

	ok, err := engine.Integrate(context.Background(), testSuggestion(suggestion.TypeRecommendation, "Order a renal panel before dose change."), "v-1", "u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, records.records, 1)
	record := records.records[0]
	assert.Equal(t, "v-1", record.VisitID)
	assert.NotEmpty(t, record.UID)
	assert.Equal(t, "🔎 Order a renal panel before dose change.", record.Plan)
	assert.Empty(t, record.Assessment)
	assert.Empty(t, record.Notes)
}

func TestIntegrateAppendsToExistingSection(t *testing.T) {
	records := &mockRecordStore{}
	engine := NewEngine(records, nil, nil)
	ctx := context.Background()

	_, err := engine.Integrate(ctx, testSuggestion(suggestion.TypeWarning, "Penicillin allergy on file, avoid amoxicillin."), "v-1", "u-1")
	require.NoError(t, err)

	second := testSuggestion(suggestion.TypeWarning, "Creatinine trending upward since last visit.")
	second.ID = "sug-2"
	ok, err := engine.Integrate(ctx, second, "v-1", "u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, records.records, 1)
	lines := strings.Split(records.records[0].Assessment, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "🔎 Penicillin allergy on file, avoid amoxicillin.", lines[0])
	assert.Equal(t, "🔎 Creatinine trending upward since last visit.", lines[1])
}

func TestIntegrateIsIdempotent(t *testing.T) {
	records := &mockRecordStore{}
	metrics := &mockMetricStore{}
	engine := NewEngine(records, metrics, nil)
	ctx := context.Background()

	s := testSuggestion(suggestion.TypeInfo, "Last HbA1c measured four months ago.")
	ok, err := engine.Integrate(ctx, s, "v-1", "u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = engine.Integrate(ctx, s, "v-1", "u-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Single line in the record, single metric sample.
	assert.Equal(t, "🔎 Last HbA1c measured four months ago.", records.records[0].Notes)
	assert.Len(t, metrics.samples, 1)
}

func TestIntegrateEmitsAuditAndMetric(t *testing.T) {
	records := &mockRecordStore{}
	metrics := &mockMetricStore{}
	events := &mockAuditEventStore{}
	engine := NewEngine(records, metrics, audit.NewRecorder(events))

	ok, err := engine.Integrate(context.Background(), testSuggestion(suggestion.TypeRecommendation, "Schedule follow-up within two weeks."), "v-1", "u-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, events.events, 1)
	assert.Equal(t, store.AuditEventSuggestionIntegrated, events.events[0].Type)
	assert.Equal(t, "plan", events.events[0].Metadata["section"])
	assert.Equal(t, "sug-1", events.events[0].Metadata["suggestion_id"])
	assert.Equal(t, "recommendation", events.events[0].Metadata["suggestion_type"])
	assert.Equal(t, "Schedule follow-up within two weeks.", events.events[0].Metadata["content"])

	require.Len(t, metrics.samples, 1)
	assert.Equal(t, store.MetricSuggestionsIntegrated, metrics.samples[0].Type)
	assert.Equal(t, 1, metrics.samples[0].Value)
	assert.Equal(t, "recommendation", metrics.samples[0].Details["suggestion_type"])
	assert.Equal(t, "plan", metrics.samples[0].Details["section"])
}

func TestIntegrateValidation(t *testing.T) {
	engine := NewEngine(&mockRecordStore{}, nil, nil)
	ctx := context.Background()

	_, err := engine.Integrate(ctx, nil, "v-1", "u-1")
	assert.Error(t, err)

	_, err = engine.Integrate(ctx, &suggestion.Suggestion{ID: "sug-1"}, "v-1", "u-1")
	assert.Error(t, err)

	_, err = engine.Integrate(ctx, testSuggestion(suggestion.TypeInfo, "Something long enough here."), "", "u-1")
	assert.Error(t, err)
}

func TestIntegrateUpdateFailure(t *testing.T) {
	records := &mockRecordStore{updateErr: assert.AnError}
	metrics := &mockMetricStore{}
	engine := NewEngine(records, metrics, nil)

	ok, err := engine.Integrate(context.Background(), testSuggestion(suggestion.TypeInfo, "Something long enough here."), "v-1", "u-1")
	assert.Error(t, err)
	assert.False(t, ok)
	// No metric sample when the record write failed.
	assert.Empty(t, metrics.samples)
}
