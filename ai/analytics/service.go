// Package analytics derives visit-level and longitudinal views over the
// append-only usage metric samples, and records reviewer feedback.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clinsense/clinsense/ai/audit"
	"github.com/clinsense/clinsense/store"
)

// riskAdherenceThreshold is the accepted/generated ratio below which a visit
// with active warnings is considered high risk.
const riskAdherenceThreshold = 0.5

// VisitSummary aggregates the metric samples of one visit.
type VisitSummary struct {
	VisitID                   string  `json:"visit_id"`
	Generated                 int     `json:"generated"`
	Accepted                  int     `json:"accepted"`
	Integrated                int     `json:"integrated"`
	FieldMatched              int     `json:"field_matched"`
	Warnings                  int     `json:"warnings"`
	EstimatedTimeSavedMinutes float64 `json:"estimated_time_saved_minutes"`
}

// Service computes summaries and longitudinal comparisons. Summaries are
// always re-derived from the samples; only longitudinal comparisons are
// persisted, because they are cross-visit products a later reader cannot
// cheaply rebuild.
type Service struct {
	metrics  store.UsageMetricStore
	feedback store.SuggestionFeedbackStore
	recorder *audit.Recorder
}

// NewService creates the analytics service. recorder may be nil; dangerous
// feedback then only produces a log line.
func NewService(metrics store.UsageMetricStore, feedback store.SuggestionFeedbackStore, recorder *audit.Recorder) *Service {
	return &Service{metrics: metrics, feedback: feedback, recorder: recorder}
}

// RecordMetric appends one metric sample.
func (s *Service) RecordMetric(ctx context.Context, create *store.CreateUsageMetric) (*store.UsageMetric, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.metrics.CreateUsageMetric(ctx, create)
}

// GetMetricsSummaryByVisit folds all samples of a visit into a summary. A
// visit with no samples yields a zero summary, not an error.
func (s *Service) GetMetricsSummaryByVisit(ctx context.Context, visitID string) (*VisitSummary, error) {
	samples, err := s.metrics.ListUsageMetrics(ctx, &store.FindUsageMetric{VisitID: &visitID})
	if err != nil {
		return nil, err
	}

	summary := &VisitSummary{VisitID: visitID}
	for _, sample := range samples {
		switch sample.Type {
		case store.MetricSuggestionsGenerated:
			summary.Generated += sample.Value
		case store.MetricSuggestionsAccepted:
			summary.Accepted += sample.Value
		case store.MetricSuggestionsIntegrated:
			summary.Integrated += sample.Value
		case store.MetricSuggestionsFieldMatched:
			summary.FieldMatched += sample.Value
		case store.MetricSuggestionsWarning:
			summary.Warnings += sample.Value
		}
		summary.EstimatedTimeSavedMinutes += sample.EstimatedTimeSavedMinutes
	}
	return summary, nil
}

// CalculateLongitudinalMetrics compares the current visit against the
// previous one, derives risk and evolution, and persists the comparison with
// both summaries attached for auditability.
func (s *Service) CalculateLongitudinalMetrics(ctx context.Context, patientID, currentVisitID, previousVisitID string) (*store.LongitudinalMetric, error) {
	var current, previous *VisitSummary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.GetMetricsSummaryByVisit(gctx, currentVisitID)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.GetMetricsSummaryByVisit(gctx, previousVisitID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	risk := deriveRisk(current, previous)
	evolution := deriveEvolution(current, previous)

	metric, err := s.metrics.CreateLongitudinalMetric(ctx, &store.CreateLongitudinalMetric{
		CurrentVisitID:    currentVisitID,
		PreviousVisitID:   previousVisitID,
		PatientID:         patientID,
		RiskLevelSummary:  risk,
		ClinicalEvolution: evolution,
		Details: map[string]any{
			"current":  current,
			"previous": previous,
		},
		CreatedTs: time.Now().Unix(),
	})
	if err != nil {
		return nil, err
	}

	slog.Info("longitudinal metrics calculated",
		"patient_id", patientID,
		"current_visit", currentVisitID,
		"previous_visit", previousVisitID,
		"risk", risk,
		"evolution", evolution)
	return metric, nil
}

// deriveRisk: high when the current visit has active warnings and suggestion
// adherence fell below the threshold, medium when warnings grew against the
// previous visit, low otherwise. A visit with no generated suggestions
// counts as fully adherent.
func deriveRisk(current, previous *VisitSummary) store.RiskLevel {
	adherence := 1.0
	if current.Generated > 0 {
		adherence = float64(current.Accepted) / float64(current.Generated)
	}
	if current.Warnings > 0 && adherence < riskAdherenceThreshold {
		return store.RiskLevelHigh
	}
	if current.Warnings > previous.Warnings {
		return store.RiskLevelMedium
	}
	return store.RiskLevelLow
}

func deriveEvolution(current, previous *VisitSummary) store.ClinicalEvolution {
	switch {
	case current.Warnings < previous.Warnings:
		return store.EvolutionImproved
	case current.Warnings > previous.Warnings:
		return store.EvolutionWorsened
	default:
		return store.EvolutionStable
	}
}

// TrackFeedback records reviewer feedback on a suggestion: the feedback row
// is upserted, a metric sample is appended, and dangerous feedback raises a
// durable audit event. The metric and audit writes are best-effort; the
// feedback row is the source of truth.
func (s *Service) TrackFeedback(ctx context.Context, upsert *store.UpsertSuggestionFeedback) (*store.SuggestionFeedback, error) {
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = time.Now().Unix()
	}
	feedback, err := s.feedback.UpsertSuggestionFeedback(ctx, upsert)
	if err != nil {
		return nil, err
	}

	if _, err := s.metrics.CreateUsageMetric(ctx, &store.CreateUsageMetric{
		VisitID: upsert.VisitID,
		UserID:  upsert.UserID,
		Type:    store.MetricSuggestionFeedback,
		Value:   1,
		Details: map[string]any{
			"suggestion_id": upsert.SuggestionID,
			"feedback_type": string(upsert.Type),
		},
	}); err != nil {
		slog.Warn("failed to record feedback metric", "suggestion_id", upsert.SuggestionID, "err", err)
	}

	if upsert.Type == store.FeedbackDangerous {
		if s.recorder != nil {
			if _, err := s.recorder.LogEvent(ctx, &store.CreateAuditEvent{
				Type:    store.AuditEventDangerousFeedback,
				UserID:  upsert.UserID,
				VisitID: upsert.VisitID,
				Metadata: map[string]any{
					"suggestion_id": upsert.SuggestionID,
				},
				CreatedTs: upsert.CreatedTs,
			}); err != nil {
				slog.Error("failed to audit dangerous feedback", "suggestion_id", upsert.SuggestionID, "err", err)
			}
		} else {
			slog.Warn("dangerous feedback received", "suggestion_id", upsert.SuggestionID, "visit_id", upsert.VisitID)
		}
	}

	return feedback, nil
}
