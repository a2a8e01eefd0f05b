// Package counterfactual answers "what would the outcome have been under
// do(X = x)" by deterministic propagation over a causal graph.
//
// The intervention node is clamped (its incoming edges are ignored) and the
// change is pushed forward in topological order along every directed path to
// the outcome. Each downstream node shifts by the sum of its affected
// parents' shifts, scaled by Sensitivity: positive edges keep the direction,
// negative edges flip it, unknown edges contribute nothing.
package counterfactual

import (
	"strings"

	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/identify"
	"github.com/roach88/causalcore/internal/ir"
)

// Method names the computation recorded on every trace.
const Method = "deterministic_graph_diff"

// DefaultSensitivity is the per-edge scale applied to parent shifts.
const DefaultSensitivity = 1.0

// Tracer computes counterfactual traces. The zero value is not usable;
// create one with New.
type Tracer struct {
	sensitivity float64
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithSensitivity sets the per-edge scale. Non-positive values are ignored.
func WithSensitivity(s float64) Option {
	return func(t *Tracer) {
		if s > 0 {
			t.sensitivity = s
		}
	}
}

// New creates a Tracer.
func New(opts ...Option) *Tracer {
	t := &Tracer{sensitivity: DefaultSensitivity}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Sensitivity returns the configured per-edge scale.
func (t *Tracer) Sensitivity() float64 {
	return t.sensitivity
}

// Trace answers the query over g. TraceID and Model are left empty for the
// caller to stamp. assumptions are the model's declared assumptions; the
// ones that mention a variable on an affected path (or no variable at all)
// are recorded on the trace, as are those about the adjustment set.
//
// Returns INVALID_CLAIM when the intervention variable or outcome is blank,
// unknown to the graph, or missing from the observed world.
func (t *Tracer) Trace(g *graph.Graph, q ir.CounterfactualQuery, assumptions []ir.Assumption) (ir.CounterfactualTrace, error) {
	x, y := q.Intervention.Variable, q.Outcome
	if err := checkVariable(g, q, "intervention", x); err != nil {
		return ir.CounterfactualTrace{}, err
	}
	if err := checkVariable(g, q, "outcome", y); err != nil {
		return ir.CounterfactualTrace{}, err
	}

	trace := ir.CounterfactualTrace{
		Query:         q,
		Assumptions:   []ir.Assumption{},
		AdjustmentSet: []string{},
		Computation: ir.CounterfactualComputation{
			Method:        Method,
			AffectedPaths: [][]string{},
		},
	}
	actual := q.ObservedWorld[y]

	if x != y {
		required, err := identify.RequiredConfounders(g, x, y)
		if err != nil {
			return ir.CounterfactualTrace{}, err
		}
		trace.AdjustmentSet = required
	}

	paths, truncated := g.CollectPaths(x, y)
	if len(paths) == 0 {
		trace.Computation.Uncertainty = ir.UncertaintyHigh
		trace.Result = ir.CounterfactualResult{
			ActualOutcome:         actual,
			CounterfactualOutcome: actual,
			Delta:                 0,
		}
		trace.Assumptions = relevantAssumptions(assumptions, scope(trace.AdjustmentSet, x, y))
		return trace, nil
	}

	affected := make(map[string]bool)
	for _, p := range paths {
		for _, n := range p {
			affected[n] = true
		}
	}

	shift := map[string]float64{x: q.Intervention.Value - q.ObservedWorld[x]}
	fullySpecified := true
	for _, n := range g.TopoOrder() {
		if !affected[n] || n == x {
			continue
		}
		var d float64
		for _, e := range g.IncomingEdges(n) {
			if !affected[e.From] {
				continue
			}
			if e.Sign == ir.SignUnknown || strings.TrimSpace(e.Mechanism) == "" {
				fullySpecified = false
			}
			switch e.Sign {
			case ir.SignPositive:
				d += t.sensitivity * shift[e.From]
			case ir.SignNegative:
				d -= t.sensitivity * shift[e.From]
			}
		}
		shift[n] = d
	}

	counterfactual := actual + shift[y]
	if x == y {
		counterfactual = q.Intervention.Value
	}

	uncertainty := ir.UncertaintyLow
	if !fullySpecified || truncated {
		uncertainty = ir.UncertaintyMedium
	}

	trace.Computation.AffectedPaths = paths
	trace.Computation.Uncertainty = uncertainty
	trace.Computation.Truncated = truncated
	trace.Result = ir.CounterfactualResult{
		ActualOutcome:         actual,
		CounterfactualOutcome: counterfactual,
		Delta:                 counterfactual - actual,
	}
	trace.Assumptions = relevantAssumptions(assumptions, scope(trace.AdjustmentSet, keys(affected)...))
	return trace, nil
}

func scope(adjustment []string, names ...string) map[string]bool {
	set := make(map[string]bool, len(adjustment)+len(names))
	for _, n := range adjustment {
		set[n] = true
	}
	for _, n := range names {
		set[n] = true
	}
	return set
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func checkVariable(g *graph.Graph, q ir.CounterfactualQuery, role, name string) error {
	if strings.TrimSpace(name) == "" {
		return ir.NewError(ir.ErrCodeInvalidClaim, "%s variable is required", role)
	}
	if !g.Has(name) {
		return ir.NewError(ir.ErrCodeInvalidClaim, "%s variable %q is not in the graph", role, name).
			WithDetail("variable", name)
	}
	if _, ok := q.ObservedWorld[name]; !ok {
		return ir.NewError(ir.ErrCodeInvalidClaim, "%s variable %q has no observed value", role, name).
			WithDetail("variable", name)
	}
	return nil
}

// relevantAssumptions keeps unscoped assumptions and those that mention a
// variable in scope.
func relevantAssumptions(assumptions []ir.Assumption, inScope map[string]bool) []ir.Assumption {
	out := make([]ir.Assumption, 0, len(assumptions))
	for _, a := range assumptions {
		if len(a.Variables) == 0 {
			out = append(out, a)
			continue
		}
		for _, v := range a.Variables {
			if inScope[v] {
				out = append(out, a)
				break
			}
		}
	}
	return out
}
