// Package metrics exposes pipeline counters to Prometheus. These are
// operational gauges for dashboards; the clinical source of truth stays in
// the usage metric store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter registers and owns the pipeline's Prometheus collectors.
type Exporter struct {
	registry *prometheus.Registry

	suggestionsGenerated  *prometheus.CounterVec
	suggestionsIntegrated prometheus.Counter
	validationFailures    *prometheus.CounterVec
	llmLatency            *prometheus.HistogramVec
}

// NewExporter creates an exporter with its own registry, so tests and
// multiple instances never collide on the global default.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		suggestionsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinsense",
			Name:      "suggestions_generated_total",
			Help:      "Suggestions produced by the pipeline, by type.",
		}, []string{"type"}),
		suggestionsIntegrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinsense",
			Name:      "suggestions_integrated_total",
			Help:      "Suggestions merged into a clinical record.",
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinsense",
			Name:      "suggestion_validation_failures_total",
			Help:      "Suggestions rejected by validation, by reason.",
		}, []string{"reason"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinsense",
			Name:      "llm_request_duration_seconds",
			Help:      "LLM generation latency, by provider.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"provider"}),
	}
	e.registry.MustRegister(
		e.suggestionsGenerated,
		e.suggestionsIntegrated,
		e.validationFailures,
		e.llmLatency,
	)
	return e
}

// ObserveGenerated counts one generated suggestion of the given type.
func (e *Exporter) ObserveGenerated(suggestionType string) {
	e.suggestionsGenerated.WithLabelValues(suggestionType).Inc()
}

// ObserveIntegrated counts one successful record integration.
func (e *Exporter) ObserveIntegrated() {
	e.suggestionsIntegrated.Inc()
}

// ObserveValidationFailure counts one rejected suggestion per reason.
func (e *Exporter) ObserveValidationFailure(reason string) {
	e.validationFailures.WithLabelValues(reason).Inc()
}

// ObserveLLMDuration records one LLM round trip.
func (e *Exporter) ObserveLLMDuration(provider string, seconds float64) {
	e.llmLatency.WithLabelValues(provider).Observe(seconds)
}

// Handler returns the scrape endpoint for this exporter's registry.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
