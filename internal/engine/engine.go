package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/causalcore/internal/autopsy"
	"github.com/roach88/causalcore/internal/counterfactual"
	"github.com/roach88/causalcore/internal/disagree"
	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/metrics"
	"github.com/roach88/causalcore/internal/promotion"
)

// Registry resolves model versions and flips the current version.
type Registry interface {
	// GetModelVersion resolves ref. An empty ref.Version selects the
	// current version. Unknown models or versions return NOT_FOUND.
	GetModelVersion(ctx context.Context, ref ir.ModelRef) (ir.Model, ir.ModelVersion, error)
	ListModels(ctx context.Context) ([]ir.Model, error)

	// SetCurrentVersion must clear the old current version and set the new
	// one atomically.
	SetCurrentVersion(ctx context.Context, modelKey, version string) error
}

// IntegrityService reports the scientific integrity state.
type IntegrityService interface {
	GetStatus(ctx context.Context) (ir.IntegrityStatus, error)
}

// Sink persists traces, reports and audits. Errors are reported as
// PERSISTENCE_FAILURE and never fail the computation that produced the
// record.
type Sink interface {
	WriteDisagreementReport(ctx context.Context, r ir.DisagreementReport) error
	WriteCounterfactualTrace(ctx context.Context, t ir.CounterfactualTrace) error
	WriteAutopsyReport(ctx context.Context, r ir.AutopsyReport) error
	WritePromotionAudit(ctx context.Context, a ir.PromotionAudit) error
}

// Operation names used in logs and metrics.
const (
	OpCheck   = "check"
	OpTrace   = "trace"
	OpCompare = "compare"
	OpPromote = "promote"
	OpAutopsy = "autopsy"
)

// Engine runs the causal core operations against injected collaborators.
type Engine struct {
	registry  Registry
	aligner   disagree.Aligner
	integrity IntegrityService
	sink      Sink

	ids     IDGenerator
	metrics *metrics.Registry

	limits      graph.Limits
	tracer      *counterfactual.Tracer
	compareOpts disagree.Options
	gate        *promotion.Gate
	autopsyOpts autopsy.Options
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimits sets the graph size and path caps for every operation.
func WithLimits(l graph.Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// WithSensitivity sets the per-edge scale of counterfactual traces,
// including the ones Compare runs.
func WithSensitivity(s float64) Option {
	return func(e *Engine) {
		e.tracer = counterfactual.New(counterfactual.WithSensitivity(s))
	}
}

// WithIDGenerator sets the generator of trace and report IDs.
//
// Default: UUIDv7Generator
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithMetrics sets the metrics registry.
//
// Default: a fresh metrics.NewRegistry() per engine
func WithMetrics(m *metrics.Registry) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithCompareOptions sets the comparison settings. Limits and Sensitivity
// are always taken from the engine.
func WithCompareOptions(o disagree.Options) Option {
	return func(e *Engine) {
		e.compareOpts = o
	}
}

// WithAutopsyThreshold sets the root-cause necessity threshold.
func WithAutopsyThreshold(t float64) Option {
	return func(e *Engine) {
		e.autopsyOpts.Threshold = t
	}
}

// WithCrossDomainCoverage sets the alignment coverage cross-domain
// promotions need.
func WithCrossDomainCoverage(c float64) Option {
	return func(e *Engine) {
		e.gate = promotion.New(promotion.WithCrossDomainCoverage(c))
	}
}

// New creates an Engine. aligner, integrity and sink may be nil: names are
// then aligned by normalized form only, integrity never freezes, and
// nothing is persisted.
func New(registry Registry, aligner disagree.Aligner, integrity IntegrityService, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		aligner:     aligner,
		integrity:   integrity,
		sink:        sink,
		ids:         UUIDv7Generator{},
		metrics:     metrics.NewRegistry(),
		limits:      graph.DefaultLimits(),
		tracer:      counterfactual.New(),
		compareOpts: disagree.DefaultOptions(),
		gate:        promotion.New(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.compareOpts.Limits = e.limits
	e.compareOpts.Sensitivity = e.tracer.Sensitivity()
	return e
}

// ListModels returns every registered model.
func (e *Engine) ListModels(ctx context.Context) ([]ir.Model, error) {
	return e.registry.ListModels(ctx)
}

// resolved is a model version with its hydrated graph.
type resolved struct {
	model   ir.Model
	version ir.ModelVersion
	ref     ir.ModelRef
	graph   *graph.Graph
}

// resolve looks up ref and hydrates its graph. The returned ref names the
// exact version and spec hash that was used.
func (e *Engine) resolve(ctx context.Context, ref ir.ModelRef) (resolved, error) {
	model, version, err := e.registry.GetModelVersion(ctx, ref)
	if err != nil {
		return resolved{}, fmt.Errorf("resolve %s: %w", ref, err)
	}
	g, err := graph.Hydrate(version.Spec.DAGSpec, graph.WithLimits(e.limits))
	if err != nil {
		return resolved{}, fmt.Errorf("model %s@%s: %w", model.ModelKey, version.Version, err)
	}
	e.metrics.RecordGraph(g.Len())

	return resolved{
		model:   model,
		version: version,
		ref:     ir.ModelRef{ModelKey: model.ModelKey, Version: version.Version, SpecHash: version.SpecHash},
		graph:   g,
	}, nil
}

// observe records an operation's outcome in metrics and, on failure, in
// the log.
func (e *Engine) observe(op string, start time.Time, err error) {
	e.metrics.RecordOperation(op, err, time.Since(start))
	if err != nil {
		slog.Debug("operation failed", "operation", op, "code", ir.CodeOf(err), "error", err)
	}
}

// persist hands a record to the sink. Failures are logged and counted.
func (e *Engine) persist(ctx context.Context, record, id string, write func(context.Context) error) {
	if e.sink == nil {
		return
	}
	if err := write(ctx); err != nil {
		slog.Warn("persistence failed", "record", record, "id", id, "error", err)
		e.metrics.RecordPersistenceFailure(record)
		return
	}
	slog.Debug("record persisted", "record", record, "id", id)
}
