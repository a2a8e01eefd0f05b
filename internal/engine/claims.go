package engine

import (
	"context"
	"time"

	"github.com/roach88/causalcore/internal/autopsy"
	"github.com/roach88/causalcore/internal/identify"
	"github.com/roach88/causalcore/internal/ir"
)

// ClaimDecision is the identifiability verdict on a claim against one
// model version.
type ClaimDecision struct {
	Model ir.ModelRef    `json:"model"`
	Claim identify.Claim `json:"claim"`
	identify.GateDecision
}

// CheckClaim decides whether claim is identifiable in the model and which
// output class it may be reported under.
//
// Returns INVALID_CLAIM for blank or unknown variables, in which case the
// decision still carries association_only.
func (e *Engine) CheckClaim(ctx context.Context, ref ir.ModelRef, claim identify.Claim) (d ClaimDecision, err error) {
	defer func(start time.Time) { e.observe(OpCheck, start, err) }(time.Now())

	m, err := e.resolve(ctx, ref)
	if err != nil {
		return ClaimDecision{Model: ref, Claim: claim, GateDecision: identify.GateDecision{AllowedOutputClass: ir.ClassAssociationOnly}}, err
	}

	gate, err := identify.EvaluateGate(m.graph, claim)
	return ClaimDecision{Model: m.ref, Claim: claim, GateDecision: gate}, err
}

// TraceCounterfactual answers q against the model and persists the trace.
func (e *Engine) TraceCounterfactual(ctx context.Context, ref ir.ModelRef, q ir.CounterfactualQuery) (trace ir.CounterfactualTrace, err error) {
	defer func(start time.Time) { e.observe(OpTrace, start, err) }(time.Now())

	m, err := e.resolve(ctx, ref)
	if err != nil {
		return ir.CounterfactualTrace{}, err
	}

	trace, err = e.tracer.Trace(m.graph, q, m.version.Spec.Assumptions)
	if err != nil {
		return ir.CounterfactualTrace{}, err
	}
	trace.TraceID = e.ids.Generate()
	trace.Model = m.ref
	if trace.Computation.Truncated {
		e.metrics.RecordTruncation(OpTrace)
	}

	e.persist(ctx, ir.RecordCounterfactual, trace.TraceID, func(ctx context.Context) error {
		return e.sink.WriteCounterfactualTrace(ctx, trace)
	})
	return trace, nil
}

// Autopsy explains a failure against the model and persists the report.
func (e *Engine) Autopsy(ctx context.Context, ref ir.ModelRef, event ir.FailureEvent) (report ir.AutopsyReport, err error) {
	defer func(start time.Time) { e.observe(OpAutopsy, start, err) }(time.Now())

	m, err := e.resolve(ctx, ref)
	if err != nil {
		return ir.AutopsyReport{}, err
	}

	report, err = autopsy.Run(m.graph, event, m.version.Spec.Assumptions, e.autopsyOpts)
	if err != nil {
		return ir.AutopsyReport{}, err
	}
	report.ID = e.ids.Generate()
	report.Model = m.ref
	e.metrics.RecordAutopsy(report)

	e.persist(ctx, ir.RecordAutopsyReport, report.ID, func(ctx context.Context) error {
		return e.sink.WriteAutopsyReport(ctx, report)
	})
	return report, nil
}
