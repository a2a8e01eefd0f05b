package disagree

import (
	"math"
	"sort"
	"strconv"

	"github.com/roach88/causalcore/internal/counterfactual"
	"github.com/roach88/causalcore/internal/ir"
)

// sideTrace is the answer of one side to a unit intervention.
type sideTrace struct {
	state string // "delta", "no path" or "not modelled"
	delta float64
	edges []ir.EdgeSpec
}

const (
	stateDelta       = "delta"
	stateNoPath      = "no path"
	stateNotModelled = "not modelled"
)

func (s sideTrace) String() string {
	if s.state == stateDelta {
		return "delta=" + strconv.FormatFloat(s.delta, 'g', 6, 64)
	}
	return s.state
}

// traceSide runs do(x = 1) against a zero baseline on one side.
func (c *comparison) traceSide(tracer *counterfactual.Tracer, v *view, x string) sideTrace {
	xn, okX := v.nameOf[x]
	yn, okY := v.nameOf[c.outcome]
	if !okX || !okY || !v.g.Has(xn) || !v.g.Has(yn) {
		return sideTrace{state: stateNotModelled}
	}

	trace, err := tracer.Trace(v.g, ir.CounterfactualQuery{
		Intervention:  ir.Intervention{Variable: xn, Value: 1},
		Outcome:       yn,
		ObservedWorld: map[string]float64{xn: 0, yn: 0},
	}, nil)
	if err != nil || trace.Computation.Uncertainty == ir.UncertaintyHigh {
		return sideTrace{state: stateNoPath}
	}

	var edges []ir.EdgeSpec
	for _, p := range trace.Computation.AffectedPaths {
		for i := 1; i < len(p); i++ {
			edges = append(edges, v.g.EdgesBetween(p[i-1], p[i])...)
		}
	}
	return sideTrace{state: stateDelta, delta: trace.Result.Delta, edges: edges}
}

// displayOf names a key for atoms even when it is only on one side.
func (c *comparison) displayOf(key string) string {
	if d, ok := c.alignment.display[key]; ok {
		return d
	}
	if n, ok := c.left.nameOf[key]; ok {
		return n
	}
	return c.right.nameOf[key]
}

func (c *comparison) diffCounterfactuals() {
	tracer := counterfactual.New(counterfactual.WithSensitivity(c.opts.Sensitivity))

	interventions := append([]string(nil), c.interventions...)
	sort.Slice(interventions, func(i, j int) bool {
		return c.displayOf(interventions[i]) < c.displayOf(interventions[j])
	})

	for _, x := range interventions {
		lt := c.traceSide(tracer, c.left, x)
		rt := c.traceSide(tracer, c.right, x)
		loc := c.displayOf(x) + "->" + c.displayOf(c.outcome)

		atom := ir.DisagreementAtom{
			Severity:        c.severity.of(x),
			Left:            lt.String(),
			Right:           rt.String(),
			Variable:        c.displayOf(x),
			EpistemicWeight: weigh(edgeTags(lt.edges, rt.edges)),
		}

		switch {
		case lt.state == stateDelta && rt.state == stateDelta:
			if math.Abs(lt.delta-rt.delta) <= c.opts.Tolerance {
				continue
			}
			atom.Type = ir.AtomCounterfactual
			atom.Reason = "intervention moves the outcome differently"
		case lt.state == stateDelta || rt.state == stateDelta:
			atom.Type = ir.AtomIntervention
			atom.Reason = "intervention reaches the outcome in one model only"
		default:
			continue
		}
		c.add(atom, loc)
	}
}
