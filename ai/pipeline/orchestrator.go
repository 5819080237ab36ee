// Package pipeline wires context assembly, prompt compilation, generation,
// parsing and validation into one suggestion run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinsense/clinsense/ai/audit"
	aicontext "github.com/clinsense/clinsense/ai/context"
	"github.com/clinsense/clinsense/ai/core/llm"
	"github.com/clinsense/clinsense/ai/metrics"
	"github.com/clinsense/clinsense/ai/prompt"
	"github.com/clinsense/clinsense/ai/suggestion"
	"github.com/clinsense/clinsense/store"
)

// minutesSavedPerSuggestion is the flat time-saved estimate credited per
// generated suggestion.
const minutesSavedPerSuggestion = 3.0

// Request describes one suggestion run.
type Request struct {
	VisitID string
	UserID  string

	// Provider selects a configured generation service by name. Empty
	// selects the default provider.
	Provider string

	// Tiers optionally supplies pre-fetched memory tiers. When nil, the
	// tiers are read from the store. A supplied but incomplete tier set
	// short-circuits the run.
	Tiers *aicontext.TierSet
}

// Result is the outcome of one run. A failed run is indistinguishable from
// a run that produced nothing except through the audit trail.
type Result struct {
	VisitID     string                   `json:"visit_id"`
	Suggestions []*suggestion.Suggestion `json:"suggestions"`
	Rejected    int                      `json:"rejected"`
	Stats       *llm.CallStats           `json:"stats,omitempty"`
	AuditLogs   []audit.Entry            `json:"audit_logs"`
}

// Options configure an Orchestrator. Metrics, AuditEvents and Exporter may
// each be nil; the corresponding recording is then skipped.
type Options struct {
	Providers       map[string]llm.Service
	DefaultProvider string
	Assembler       *aicontext.Assembler
	Metrics         store.UsageMetricStore
	AuditEvents     store.AuditEventStore
	Exporter        *metrics.Exporter
	ParserOptions   suggestion.ParserOptions
}

// Orchestrator runs the suggestion pipeline. Run never returns an error and
// never panics: any failure yields an empty result, because a broken
// assistant must not break the clinical workflow around it.
type Orchestrator struct {
	providers       map[string]llm.Service
	defaultProvider string
	assembler       *aicontext.Assembler
	compiler        *prompt.Compiler
	parser          *suggestion.Parser
	validator       *suggestion.Validator
	metrics         store.UsageMetricStore
	auditEvents     store.AuditEventStore
	exporter        *metrics.Exporter
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts Options) *Orchestrator {
	parserOpts := opts.ParserOptions
	if parserOpts.Source == "" {
		parserOpts = suggestion.DefaultParserOptions()
	}
	return &Orchestrator{
		providers:       opts.Providers,
		defaultProvider: opts.DefaultProvider,
		assembler:       opts.Assembler,
		compiler:        prompt.NewCompiler(),
		parser:          suggestion.NewParser(parserOpts),
		validator:       suggestion.NewValidator(),
		metrics:         opts.Metrics,
		auditEvents:     opts.AuditEvents,
		exporter:        opts.Exporter,
	}
}

// Run executes one suggestion run for a visit.
func (o *Orchestrator) Run(ctx context.Context, req *Request) (result *Result) {
	recorder := audit.NewRecorder(o.auditEvents)
	if req == nil {
		return &Result{Suggestions: []*suggestion.Suggestion{}, AuditLogs: recorder.Entries()}
	}
	result = &Result{VisitID: req.VisitID, Suggestions: []*suggestion.Suggestion{}}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("suggestion run panicked", "visit_id", req.VisitID, "panic", r)
			result = &Result{VisitID: req.VisitID, Suggestions: []*suggestion.Suggestion{}}
		}
		result.AuditLogs = recorder.Entries()
	}()

	recorder.Log("pipeline.run.started", map[string]any{
		"visit_id": req.VisitID,
		"user_id":  req.UserID,
	})

	agentCtx, ok := o.assembleContext(ctx, req, recorder)
	if !ok {
		return result
	}

	service := o.selectProvider(req.Provider)
	if service == nil {
		recorder.Log("pipeline.run.aborted", map[string]any{"reason": "no generation provider configured"})
		return result
	}

	compiled := o.compiler.Compile(agentCtx)

	raw, stats, err := service.Generate(ctx, compiled)
	if o.exporter != nil && stats != nil {
		o.exporter.ObserveLLMDuration(service.Provider(), float64(stats.TotalDurationMs)/1000)
	}
	if err != nil {
		slog.Error("suggestion generation failed", "visit_id", req.VisitID, "provider", service.Provider(), "err", err)
		recorder.Log("pipeline.run.aborted", map[string]any{"reason": "generation failed"})
		return result
	}
	result.Stats = stats

	candidates := o.parser.Parse(raw, agentCtx.BlockIDs())
	for _, candidate := range candidates {
		verdict := o.validator.Evaluate(candidate)
		if !verdict.IsValid {
			result.Rejected++
			recorder.Log("pipeline.suggestion.rejected", map[string]any{
				"suggestion_id": candidate.ID,
				"reasons":       verdict.Reasons,
			})
			if o.exporter != nil {
				for _, reason := range verdict.Reasons {
					o.exporter.ObserveValidationFailure(reason)
				}
			}
			continue
		}
		result.Suggestions = append(result.Suggestions, candidate)
		if o.exporter != nil {
			o.exporter.ObserveGenerated(string(candidate.Type))
		}
	}

	o.recordRun(ctx, req, result, recorder)

	recorder.Log("pipeline.run.finished", map[string]any{
		"visit_id":  req.VisitID,
		"generated": len(result.Suggestions),
		"rejected":  result.Rejected,
	})
	return result
}

// assembleContext resolves the agent context from supplied tiers or the
// store. A false return means the run must short-circuit.
func (o *Orchestrator) assembleContext(ctx context.Context, req *Request, recorder *audit.Recorder) (*aicontext.AgentContext, bool) {
	if req.Tiers != nil {
		if !req.Tiers.Complete() {
			recorder.Log("pipeline.run.aborted", map[string]any{"reason": "incomplete memory tiers"})
			return nil, false
		}
		agentCtx := o.assembler.Assemble(req.Tiers)
		if agentCtx.VisitID == "" {
			agentCtx.VisitID = req.VisitID
		}
		return agentCtx, true
	}

	agentCtx, err := o.assembler.AssembleVisit(ctx, req.VisitID)
	if err != nil {
		slog.Error("context assembly failed", "visit_id", req.VisitID, "err", err)
		recorder.Log("pipeline.run.aborted", map[string]any{"reason": "context assembly failed"})
		return nil, false
	}
	return agentCtx, true
}

func (o *Orchestrator) selectProvider(name string) llm.Service {
	if name == "" {
		name = o.defaultProvider
	}
	if service, ok := o.providers[name]; ok {
		return service
	}
	return o.providers[o.defaultProvider]
}

// recordRun persists the generation metric sample and durable audit event.
// Both are best-effort; the suggestions are already in the result. Metric
// samples are only appended for runs that produced at least one suggestion
// for a known visit; empty runs leave no sample.
func (o *Orchestrator) recordRun(ctx context.Context, req *Request, result *Result, recorder *audit.Recorder) {
	count := len(result.Suggestions)
	now := time.Now().Unix()

	if o.metrics != nil && count > 0 && req.VisitID != "" {
		if _, err := o.metrics.CreateUsageMetric(ctx, &store.CreateUsageMetric{
			VisitID:                   req.VisitID,
			UserID:                    req.UserID,
			Type:                      store.MetricSuggestionsGenerated,
			Value:                     count,
			EstimatedTimeSavedMinutes: float64(count) * minutesSavedPerSuggestion,
			Details: map[string]any{
				"rejected": result.Rejected,
			},
			CreatedTs: now,
		}); err != nil {
			slog.Warn("failed to record generation metric", "visit_id", req.VisitID, "err", err)
		}

		warnings := 0
		for _, s := range result.Suggestions {
			if s.Type == suggestion.TypeWarning {
				warnings++
			}
		}
		if warnings > 0 {
			if _, err := o.metrics.CreateUsageMetric(ctx, &store.CreateUsageMetric{
				VisitID:   req.VisitID,
				UserID:    req.UserID,
				Type:      store.MetricSuggestionsWarning,
				Value:     warnings,
				CreatedTs: now,
			}); err != nil {
				slog.Warn("failed to record warning metric", "visit_id", req.VisitID, "err", err)
			}
		}
	}

	if _, err := recorder.LogEvent(ctx, &store.CreateAuditEvent{
		Type:    store.AuditEventSuggestionsGenerated,
		UserID:  req.UserID,
		VisitID: req.VisitID,
		Metadata: map[string]any{
			"generated": count,
			"rejected":  result.Rejected,
		},
		CreatedTs: now,
	}); err != nil {
		slog.Warn("failed to audit generation run", "visit_id", req.VisitID, "err", err)
	}
}
