package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinsense/clinsense/ai/audit"
	"github.com/clinsense/clinsense/store"
)

type mockMetricStore struct {
	samples      []*store.UsageMetric
	longitudinal []*store.LongitudinalMetric
	listErr      error
}

func (m *mockMetricStore) CreateUsageMetric(_ context.Context, create *store.CreateUsageMetric) (*store.UsageMetric, error) {
	metric := &store.UsageMetric{
		ID:                        int64(len(m.samples) + 1),
		VisitID:                   create.VisitID,
		UserID:                    create.UserID,
		Type:                      create.Type,
		Value:                     create.Value,
		EstimatedTimeSavedMinutes: create.EstimatedTimeSavedMinutes,
		Details:                   create.Details,
		CreatedTs:                 create.CreatedTs,
	}
	m.samples = append(m.samples, metric)
	return metric, nil
}

func (m *mockMetricStore) ListUsageMetrics(_ context.Context, find *store.FindUsageMetric) ([]*store.UsageMetric, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*store.UsageMetric
	for _, s := range m.samples {
		if find.VisitID != nil && s.VisitID != *find.VisitID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *mockMetricStore) CreateLongitudinalMetric(_ context.Context, create *store.CreateLongitudinalMetric) (*store.LongitudinalMetric, error) {
	metric := &store.LongitudinalMetric{
		ID:                int64(len(m.longitudinal) + 1),
		CurrentVisitID:    create.CurrentVisitID,
		PreviousVisitID:   create.PreviousVisitID,
		PatientID:         create.PatientID,
		RiskLevelSummary:  create.RiskLevelSummary,
		ClinicalEvolution: create.ClinicalEvolution,
		Details:           create.Details,
		CreatedTs:         create.CreatedTs,
	}
	m.longitudinal = append(m.longitudinal, metric)
	return metric, nil
}

func (m *mockMetricStore) ListLongitudinalMetrics(_ context.Context, _ *store.FindLongitudinalMetric) ([]*store.LongitudinalMetric, error) {
	return m.longitudinal, nil
}

type mockFeedbackStore struct {
	rows []*store.SuggestionFeedback
}

func (m *mockFeedbackStore) UpsertSuggestionFeedback(_ context.Context, upsert *store.UpsertSuggestionFeedback) (*store.SuggestionFeedback, error) {
	for _, row := range m.rows {
		if row.SuggestionID == upsert.SuggestionID && row.UserID == upsert.UserID {
			row.Type = upsert.Type
			return row, nil
		}
	}
	row := &store.SuggestionFeedback{
		ID:           int64(len(m.rows) + 1),
		SuggestionID: upsert.SuggestionID,
		UserID:       upsert.UserID,
		VisitID:      upsert.VisitID,
		Type:         upsert.Type,
		CreatedTs:    upsert.CreatedTs,
	}
	m.rows = append(m.rows, row)
	return row, nil
}

func (m *mockFeedbackStore) ListSuggestionFeedback(_ context.Context, _ *store.FindSuggestionFeedback) ([]*store.SuggestionFeedback, error) {
	return m.rows, nil
}

func seedVisit(t *testing.T, s *Service, visitID string, generated, accepted, warnings int) {
	t.Helper()
	ctx := context.Background()
	add := func(typ store.UsageMetricType, value int, minutes float64) {
		if value == 0 {
			return
		}
		_, err := s.RecordMetric(ctx, &store.CreateUsageMetric{
			VisitID:                   visitID,
			UserID:                    "u-1",
			Type:                      typ,
			Value:                     value,
			EstimatedTimeSavedMinutes: minutes,
		})
		require.NoError(t, err)
	}
	add(store.MetricSuggestionsGenerated, generated, float64(generated)*3)
	add(store.MetricSuggestionsAccepted, accepted, 0)
	add(store.MetricSuggestionsWarning, warnings, 0)
}

func TestGetMetricsSummaryByVisit(t *testing.T) {
	metrics := &mockMetricStore{}
	s := NewService(metrics, &mockFeedbackStore{}, nil)
	ctx := context.Background()

	seedVisit(t, s, "v-1", 3, 2, 1)
	_, err := s.RecordMetric(ctx, &store.CreateUsageMetric{
		VisitID: "v-1", Type: store.MetricSuggestionsIntegrated, Value: 2,
	})
	require.NoError(t, err)
	_, err = s.RecordMetric(ctx, &store.CreateUsageMetric{
		VisitID: "v-1", Type: store.MetricSuggestionsFieldMatched, Value: 1,
	})
	require.NoError(t, err)
	// A sample from another visit must not leak in.
	seedVisit(t, s, "v-other", 5, 5, 0)

	summary, err := s.GetMetricsSummaryByVisit(ctx, "v-1")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Generated)
	assert.Equal(t, 2, summary.Accepted)
	assert.Equal(t, 2, summary.Integrated)
	assert.Equal(t, 1, summary.FieldMatched)
	assert.Equal(t, 1, summary.Warnings)
	assert.InDelta(t, 9.0, summary.EstimatedTimeSavedMinutes, 0.001)
}

func TestGetMetricsSummarySumsSamplesOfSameType(t *testing.T) {
	metrics := &mockMetricStore{}
	s := NewService(metrics, &mockFeedbackStore{}, nil)
	ctx := context.Background()

	// Two generation runs for the same visit fold into one total.
	for _, value := range []int{3, 2} {
		_, err := s.RecordMetric(ctx, &store.CreateUsageMetric{
			VisitID: "v-1",
			Type:    store.MetricSuggestionsGenerated,
			Value:   value,
		})
		require.NoError(t, err)
	}

	summary, err := s.GetMetricsSummaryByVisit(ctx, "v-1")
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Generated)
}

func TestGetMetricsSummaryEmptyVisit(t *testing.T) {
	s := NewService(&mockMetricStore{}, &mockFeedbackStore{}, nil)

	summary, err := s.GetMetricsSummaryByVisit(context.Background(), "v-empty")
	require.NoError(t, err)
	assert.Equal(t, &VisitSummary{VisitID: "v-empty"}, summary)
}

func TestCalculateLongitudinalMetrics(t *testing.T) {
	tests := []struct {
		name          string
		current       [3]int // generated, accepted, warnings
		previous      [3]int
		wantRisk      store.RiskLevel
		wantEvolution store.ClinicalEvolution
	}{
		{
			name:          "stable low risk",
			current:       [3]int{3, 3, 0},
			previous:      [3]int{3, 3, 0},
			wantRisk:      store.RiskLevelLow,
			wantEvolution: store.EvolutionStable,
		},
		{
			name:          "more warnings than before",
			current:       [3]int{3, 2, 2},
			previous:      [3]int{3, 3, 1},
			wantRisk:      store.RiskLevelMedium,
			wantEvolution: store.EvolutionWorsened,
		},
		{
			name:          "warnings with low adherence",
			current:       [3]int{4, 1, 1},
			previous:      [3]int{3, 3, 1},
			wantRisk:      store.RiskLevelHigh,
			wantEvolution: store.EvolutionStable,
		},
		{
			name:          "fewer warnings improves",
			current:       [3]int{3, 3, 0},
			previous:      [3]int{3, 3, 2},
			wantRisk:      store.RiskLevelLow,
			wantEvolution: store.EvolutionImproved,
		},
		{
			name:          "no generated counts as adherent",
			current:       [3]int{0, 0, 1},
			previous:      [3]int{3, 3, 1},
			wantRisk:      store.RiskLevelLow,
			wantEvolution: store.EvolutionStable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &mockMetricStore{}
			s := NewService(metrics, &mockFeedbackStore{}, nil)
			seedVisit(t, s, "v-cur", tt.current[0], tt.current[1], tt.current[2])
			seedVisit(t, s, "v-prev", tt.previous[0], tt.previous[1], tt.previous[2])

			metric, err := s.CalculateLongitudinalMetrics(context.Background(), "p-1", "v-cur", "v-prev")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRisk, metric.RiskLevelSummary)
			assert.Equal(t, tt.wantEvolution, metric.ClinicalEvolution)
			assert.Equal(t, "p-1", metric.PatientID)

			// Both summaries ride along for auditability.
			require.Contains(t, metric.Details, "current")
			require.Contains(t, metric.Details, "previous")
			require.Len(t, metrics.longitudinal, 1)
		})
	}
}

func TestCalculateLongitudinalMetricsFetchError(t *testing.T) {
	metrics := &mockMetricStore{listErr: assert.AnError}
	s := NewService(metrics, &mockFeedbackStore{}, nil)

	_, err := s.CalculateLongitudinalMetrics(context.Background(), "p-1", "v-cur", "v-prev")
	assert.Error(t, err)
	assert.Empty(t, metrics.longitudinal)
}

func TestTrackFeedback(t *testing.T) {
	metrics := &mockMetricStore{}
	feedback := &mockFeedbackStore{}
	s := NewService(metrics, feedback, nil)

	row, err := s.TrackFeedback(context.Background(), &store.UpsertSuggestionFeedback{
		SuggestionID: "sug-1",
		UserID:       "u-1",
		VisitID:      "v-1",
		Type:         store.FeedbackUseful,
	})
	require.NoError(t, err)
	assert.Equal(t, store.FeedbackUseful, row.Type)
	require.Len(t, metrics.samples, 1)
	assert.Equal(t, store.MetricSuggestionFeedback, metrics.samples[0].Type)
	assert.Equal(t, "sug-1", metrics.samples[0].Details["suggestion_id"])
}

func TestTrackFeedbackUpsertSupersedes(t *testing.T) {
	s := NewService(&mockMetricStore{}, &mockFeedbackStore{}, nil)
	ctx := context.Background()

	_, err := s.TrackFeedback(ctx, &store.UpsertSuggestionFeedback{
		SuggestionID: "sug-1", UserID: "u-1", VisitID: "v-1", Type: store.FeedbackUseful,
	})
	require.NoError(t, err)
	row, err := s.TrackFeedback(ctx, &store.UpsertSuggestionFeedback{
		SuggestionID: "sug-1", UserID: "u-1", VisitID: "v-1", Type: store.FeedbackIncorrect,
	})
	require.NoError(t, err)
	assert.Equal(t, store.FeedbackIncorrect, row.Type)
}

func TestTrackFeedbackDangerousRaisesAuditEvent(t *testing.T) {
	eventStore := &mockAuditEventStore{}
	recorder := audit.NewRecorder(eventStore)
	s := NewService(&mockMetricStore{}, &mockFeedbackStore{}, recorder)

	_, err := s.TrackFeedback(context.Background(), &store.UpsertSuggestionFeedback{
		SuggestionID: "sug-1",
		UserID:       "u-1",
		VisitID:      "v-1",
		Type:         store.FeedbackDangerous,
	})
	require.NoError(t, err)

	events, err := eventStore.ListAuditEvents(context.Background(), &store.FindAuditEvent{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, store.AuditEventDangerousFeedback, events[0].Type)
	assert.Equal(t, "sug-1", events[0].Metadata["suggestion_id"])
}

type mockAuditEventStore struct {
	events []*store.AuditEvent
}

func (m *mockAuditEventStore) CreateAuditEvent(_ context.Context, create *store.CreateAuditEvent) (*store.AuditEvent, error) {
	event := &store.AuditEvent{
		ID:        int64(len(m.events) + 1),
		Type:      create.Type,
		UserID:    create.UserID,
		VisitID:   create.VisitID,
		Metadata:  create.Metadata,
		CreatedTs: create.CreatedTs,
	}
	m.events = append(m.events, event)
	return event, nil
}

func (m *mockAuditEventStore) ListAuditEvents(_ context.Context, _ *store.FindAuditEvent) ([]*store.AuditEvent, error) {
	return m.events, nil
}
