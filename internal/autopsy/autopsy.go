// Package autopsy explains an observed failure in terms of the causal graph.
//
// Every ancestor of the failed outcome is a candidate cause. Its necessity
// score is the share of source-to-outcome paths that pass through it, where
// sources are the exogenous ancestors of the outcome (or its root ancestors
// when the model declares no exogenous nodes). A cut vertex scores 1.0.
package autopsy

import (
	"sort"
	"strings"
	"unicode"

	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/validation"
)

// DefaultThreshold is the necessity score at or above which a candidate is
// reported as a root cause.
const DefaultThreshold = 0.5

// Prevention actions, from most to least certain responsibility.
const (
	ActionIntervene = "intervene"
	ActionValidate  = "validate"
	ActionMonitor   = "monitor"
)

// Options tune an autopsy run.
type Options struct {
	// Threshold defaults to DefaultThreshold when zero or out of range.
	Threshold float64
}

func (o Options) threshold() float64 {
	if o.Threshold <= 0 || o.Threshold > 1 {
		return DefaultThreshold
	}
	return o.Threshold
}

// Run builds the autopsy report of event against g. The report ID and
// model reference are left for the caller to stamp.
//
// Returns INVALID_CLAIM if the event fails validation or names an outcome
// that is not in the graph.
func Run(g *graph.Graph, event ir.FailureEvent, assumptions []ir.Assumption, opts Options) (ir.AutopsyReport, error) {
	if err := validation.Struct(event); err != nil {
		return ir.AutopsyReport{}, ir.NewError(ir.ErrCodeInvalidClaim, "invalid failure event: %v", err)
	}
	if !g.Has(event.Outcome) {
		return ir.AutopsyReport{}, ir.NewError(ir.ErrCodeInvalidClaim,
			"failure outcome %q is not in the graph", event.Outcome).WithDetail("variable", event.Outcome)
	}

	report := ir.AutopsyReport{
		FailureEvent:      event,
		RootCauses:        []string{},
		Symptoms:          append([]string{}, event.Symptoms...),
		FailedAssumptions: []ir.Assumption{},
		NecessityScores:   []ir.NecessityScore{},
		PreventionPlan:    []string{},
	}

	ancestors, err := g.AncestorsOf(event.Outcome)
	if err != nil {
		return ir.AutopsyReport{}, err
	}
	if len(ancestors) == 0 {
		return report, nil
	}

	through, total, truncated := g.CountPathsThrough(sourcesOf(g, ancestors), event.Outcome)
	report.Truncated = truncated
	if total == 0 {
		return report, nil
	}

	dist := g.Distances(event.Outcome)
	rank := make(map[string]int, len(ancestors))
	for i, a := range ancestors {
		rank[a] = i
	}

	for _, a := range ancestors {
		if through[a] == 0 {
			continue
		}
		report.NecessityScores = append(report.NecessityScores, ir.NecessityScore{
			Factor: a,
			Score:  float64(through[a]) / float64(total),
		})
	}

	// Highest score first; closer to the outcome wins ties, then declaration.
	sort.SliceStable(report.NecessityScores, func(i, j int) bool {
		a, b := report.NecessityScores[i], report.NecessityScores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if dist[a.Factor] != dist[b.Factor] {
			return dist[a.Factor] < dist[b.Factor]
		}
		return rank[a.Factor] < rank[b.Factor]
	})

	threshold := opts.threshold()
	for _, s := range report.NecessityScores {
		if s.Score >= threshold {
			report.RootCauses = append(report.RootCauses, s.Factor)
		}
	}

	report.FailedAssumptions = failedAssumptions(assumptions, report.RootCauses)
	report.PreventionPlan = PreventionPlan(report.RootCauses)
	return report, nil
}

// sourcesOf picks the path origins among the ancestors of an outcome.
func sourcesOf(g *graph.Graph, ancestors []string) []string {
	var exogenous, roots []string
	for _, a := range ancestors {
		if n, ok := g.Node(a); ok && n.Kind == ir.KindExogenous {
			exogenous = append(exogenous, a)
		}
		if len(g.Parents(a)) == 0 {
			roots = append(roots, a)
		}
	}
	if len(exogenous) > 0 {
		return exogenous
	}
	return roots
}

// PreventionPlan emits one action per ranked cause: the first is
// intervened on, the last monitored, anything between validated.
func PreventionPlan(causes []string) []string {
	plan := make([]string, 0, len(causes))
	for i, c := range causes {
		action := ActionValidate
		switch {
		case i == 0:
			action = ActionIntervene
		case i == len(causes)-1:
			action = ActionMonitor
		}
		plan = append(plan, action+": "+c)
	}
	return plan
}

// failedAssumptions returns the assumptions that reference a root cause,
// either through their declared variables or, when none are declared, by
// naming the cause in their text.
func failedAssumptions(assumptions []ir.Assumption, causes []string) []ir.Assumption {
	out := []ir.Assumption{}
	if len(causes) == 0 {
		return out
	}
	isCause := make(map[string]bool, len(causes))
	for _, c := range causes {
		isCause[c] = true
	}

	for _, a := range assumptions {
		if references(a, isCause) {
			out = append(out, a)
		}
	}
	return out
}

func references(a ir.Assumption, isCause map[string]bool) bool {
	if len(a.Variables) > 0 {
		for _, v := range a.Variables {
			if isCause[v] {
				return true
			}
		}
		return false
	}
	for _, word := range words(a.Text) {
		if isCause[word] {
			return true
		}
	}
	return false
}

func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
