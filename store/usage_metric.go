package store

import "context"

// UsageMetricType classifies a usage metric sample.
type UsageMetricType string

const (
	MetricSuggestionsGenerated    UsageMetricType = "suggestions_generated"
	MetricSuggestionsAccepted     UsageMetricType = "suggestions_accepted"
	MetricSuggestionsIntegrated   UsageMetricType = "suggestions_integrated"
	MetricSuggestionsFieldMatched UsageMetricType = "suggestions_field_matched"
	MetricSuggestionsWarning      UsageMetricType = "suggestions_warning"
	MetricSuggestionFeedback      UsageMetricType = "suggestion_feedback"
)

// UsageMetric is one append-only metric sample. Summaries are derived views
// over these rows, never stored mutable state.
type UsageMetric struct {
	ID                        int64
	VisitID                   string
	UserID                    string
	Type                      UsageMetricType
	Value                     int
	EstimatedTimeSavedMinutes float64
	Details                   map[string]any
	CreatedTs                 int64
}

// CreateUsageMetric represents the input for appending a metric sample.
type CreateUsageMetric struct {
	VisitID                   string
	UserID                    string
	Type                      UsageMetricType
	Value                     int
	EstimatedTimeSavedMinutes float64
	Details                   map[string]any
	CreatedTs                 int64
}

// FindUsageMetric represents the filter for listing metric samples.
type FindUsageMetric struct {
	VisitID *string
	UserID  *string
	Type    *UsageMetricType
	Limit   *int
}

// RiskLevel summarizes longitudinal risk between two visits.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// ClinicalEvolution summarizes how the patient evolved between two visits.
type ClinicalEvolution string

const (
	EvolutionImproved ClinicalEvolution = "improved"
	EvolutionStable   ClinicalEvolution = "stable"
	EvolutionWorsened ClinicalEvolution = "worsened"
)

// LongitudinalMetric is the derived comparison between two visits' usage
// summaries. Details stores both summaries verbatim so the derivation stays
// auditable.
type LongitudinalMetric struct {
	ID                int64
	CurrentVisitID    string
	PreviousVisitID   string
	PatientID         string
	RiskLevelSummary  RiskLevel
	ClinicalEvolution ClinicalEvolution
	Details           map[string]any
	CreatedTs         int64
}

// CreateLongitudinalMetric represents the input for persisting a derived
// longitudinal comparison.
type CreateLongitudinalMetric struct {
	CurrentVisitID    string
	PreviousVisitID   string
	PatientID         string
	RiskLevelSummary  RiskLevel
	ClinicalEvolution ClinicalEvolution
	Details           map[string]any
	CreatedTs         int64
}

// FindLongitudinalMetric represents the filter for listing longitudinal
// metrics.
type FindLongitudinalMetric struct {
	CurrentVisitID  *string
	PreviousVisitID *string
	PatientID       *string
	Limit           *int
}

// UsageMetricStore defines append-only metric persistence.
type UsageMetricStore interface {
	CreateUsageMetric(ctx context.Context, create *CreateUsageMetric) (*UsageMetric, error)
	ListUsageMetrics(ctx context.Context, find *FindUsageMetric) ([]*UsageMetric, error)
	CreateLongitudinalMetric(ctx context.Context, create *CreateLongitudinalMetric) (*LongitudinalMetric, error)
	ListLongitudinalMetrics(ctx context.Context, find *FindLongitudinalMetric) ([]*LongitudinalMetric, error)
}
