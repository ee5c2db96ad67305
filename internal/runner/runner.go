// Package runner evaluates every configured analyzer against a dataset.
package runner

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/blugelabs/bluge/analysis"
	"github.com/google/uuid"

	"github.com/ricesearch/rice-eval/internal/analyzer"
	"github.com/ricesearch/rice-eval/internal/bus"
	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/dataset"
	"github.com/ricesearch/rice-eval/internal/evaluation"
	"github.com/ricesearch/rice-eval/internal/history"
	"github.com/ricesearch/rice-eval/internal/index"
	"github.com/ricesearch/rice-eval/internal/metrics"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/pkg/logger"
)

// Status is the result of one analyzer configuration.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusUnavailable Status = "unavailable"
	StatusFailed      Status = "failed"
)

// Outcome is what happened to one analyzer configuration.
type Outcome struct {
	Analyzer string                    `json:"analyzer"`
	Status   Status                    `json:"status"`
	Err      error                     `json:"-"`
	Error    string                    `json:"error,omitempty"`
	Summary  *evaluation.Summary       `json:"summary,omitempty"`
	PerQuery []evaluation.QueryMetrics `json:"per_query,omitempty"`
	Duration time.Duration             `json:"duration"`
}

// Index is a built, searchable index.
type Index interface {
	evaluation.Searcher
	Hash() string
	Close() error
}

// Provider builds an index of the documents at path under an analyzer.
type Provider interface {
	Build(ctx context.Context, documentsPath string, a *analysis.Analyzer) (Index, error)
}

// BlugeProvider adapts index.Provider to Provider.
type BlugeProvider struct {
	*index.Provider
}

// Build implements Provider.
func (p BlugeProvider) Build(ctx context.Context, documentsPath string, a *analysis.Analyzer) (Index, error) {
	idx, err := p.Provider.Build(ctx, documentsPath, a)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Progress reports query progress of one configuration.
type Progress interface {
	evaluation.Progress
	Finish() error
}

// ProgressFactory creates the progress reporter of a configuration.
type ProgressFactory func(analyzer string, queries int) Progress

// Config holds the runner settings.
type Config struct {
	Documents string
	Analyzers []config.AnalyzerConfig
	Scorer    evaluation.Scorer
	Workers   int
}

// Runner evaluates analyzer configurations one after another.
type Runner struct {
	cfg       Config
	provider  Provider
	evaluator *evaluation.Evaluator
	bus       bus.Bus
	history   history.Store
	exporter  *metrics.Exporter
	log       *logger.Logger
	progress  ProgressFactory
	onOutcome func(Outcome)
}

// Option configures a Runner.
type Option func(*Runner)

// WithBus publishes run events on b.
func WithBus(b bus.Bus) Option {
	return func(r *Runner) { r.bus = b }
}

// WithHistory saves completed summaries to s.
func WithHistory(s history.Store) Option {
	return func(r *Runner) { r.history = s }
}

// WithExporter records results in e.
func WithExporter(e *metrics.Exporter) Option {
	return func(r *Runner) { r.exporter = e }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithProgress sets the progress reporter factory.
func WithProgress(f ProgressFactory) Option {
	return func(r *Runner) { r.progress = f }
}

// WithOutcomeHandler calls fn with each outcome as soon as it is known.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(r *Runner) { r.onOutcome = fn }
}

// New creates a runner.
func New(cfg Config, provider Provider, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		provider:  provider,
		evaluator: evaluation.NewEvaluator(cfg.Scorer, cfg.Workers),
		bus:       bus.NopBus{},
		history:   history.NopStore{},
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates every configuration against ds. A configuration that is
// unavailable or fails is reported and skipped. Only cancellation stops the run.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset) ([]Outcome, error) {
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	log := r.log.WithContext(ctx)

	log.Info("Starting evaluation run",
		"analyzers", len(r.cfg.Analyzers),
		"queries", len(ds.Queries),
		"workers", r.cfg.Workers,
	)

	outcomes := make([]Outcome, 0, len(r.cfg.Analyzers))
	for _, ac := range r.cfg.Analyzers {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		out := r.evaluate(ctx, runID, ac, ds)
		if out.Err != nil && isCancellation(out.Err) {
			return outcomes, out.Err
		}

		outcomes = append(outcomes, out)
		if r.onOutcome != nil {
			r.onOutcome(out)
		}
	}

	log.Info("Evaluation run finished", "configurations", len(outcomes))
	return outcomes, nil
}

func (r *Runner) evaluate(ctx context.Context, runID string, ac config.AnalyzerConfig, ds *dataset.Dataset) Outcome {
	start := time.Now()
	log := r.log.WithRunID(runID).WithAnalyzer(ac.Name)

	r.publish(ctx, log, bus.NewEvent(bus.TopicEvaluationStarted, runID, StartedPayload{
		Analyzer: ac.Name,
		Queries:  len(ds.Queries),
	}))

	out := Outcome{Analyzer: ac.Name}

	a, err := analyzer.Build(ac, ds.Stopwords)
	if err != nil {
		return r.fail(ctx, log, runID, out, start, err)
	}

	idx, err := r.provider.Build(ctx, r.cfg.Documents, a)
	if err != nil {
		return r.fail(ctx, log, runID, out, start, err)
	}
	defer func() {
		if err := idx.Close(); err != nil {
			log.Warn("Failed to close index", "error", err.Error())
		}
	}()

	var progress Progress
	if r.progress != nil {
		progress = r.progress(ac.Name, len(ds.Queries))
	}

	res, err := r.evaluator.Evaluate(ctx, idx, ds.Queries, ds.Qrels, progress)
	if progress != nil {
		_ = progress.Finish()
	}
	if err != nil {
		return r.fail(ctx, log, runID, out, start, err)
	}

	out.Status = StatusCompleted
	out.Summary = &res.Summary
	out.PerQuery = res.PerQuery
	out.Duration = time.Since(start)

	log.Info("Analyzer evaluated",
		"map", res.Summary.MAP,
		"f_measure", res.Summary.FMeasure,
		"duration", out.Duration,
	)

	if err := r.history.Save(ctx, history.Entry{
		RunID:          runID,
		Analyzer:       ac.Name,
		Timestamp:      time.Now(),
		Duration:       out.Duration,
		CollectionHash: idx.Hash(),
		Summary:        res.Summary,
	}); err != nil {
		log.WithError(err).Warn("Failed to save run history")
	}

	if r.exporter != nil {
		r.exporter.Observe(ac.Name, res.Summary, out.Duration)
	}

	r.publish(ctx, log, bus.NewEvent(bus.TopicEvaluationCompleted, runID, CompletedPayload{
		Analyzer:   ac.Name,
		Summary:    res.Summary,
		DurationMs: out.Duration.Milliseconds(),
	}))

	return out
}

// fail turns err into an unavailable or failed outcome.
func (r *Runner) fail(ctx context.Context, log *logger.Logger, runID string, out Outcome, start time.Time, err error) Outcome {
	out.Err = err
	out.Error = err.Error()
	out.Duration = time.Since(start)
	out.Status = StatusFailed
	if errors.IsAnalyzerUnavailable(err) {
		out.Status = StatusUnavailable
	}

	if isCancellation(err) {
		return out
	}

	log.WithError(err).Warn("Analyzer configuration skipped", "status", out.Status)

	if r.exporter != nil {
		r.exporter.ObserveFailure(out.Analyzer, string(out.Status))
	}

	r.publish(ctx, log, bus.NewEvent(bus.TopicEvaluationFailed, runID, FailedPayload{
		Analyzer: out.Analyzer,
		Status:   string(out.Status),
		Error:    out.Error,
	}))

	return out
}

func (r *Runner) publish(ctx context.Context, log *logger.Logger, event bus.Event) {
	if err := r.bus.Publish(ctx, event.Type, event); err != nil {
		log.WithError(err).Warn("Failed to publish event", "topic", event.Type)
	}
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
