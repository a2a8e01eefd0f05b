// Package disagree diffs two causal model specs into a severity-weighted
// disagreement report.
//
// The comparison runs in four steps:
//  1. Align variable names of both sides into a shared key space
//  2. Diff edges over aligned loci (presence, direction, sign)
//  3. Diff declared assumptions and confounders
//  4. Trace each requested intervention on both sides and diff the deltas
//
// Severity and score depend only on the unordered pair of sides, so
// Compare(A, B) and Compare(B, A) agree on both.
package disagree

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/causalcore/internal/counterfactual"
	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
)

// Side is one model in a comparison.
type Side struct {
	Ref    ir.ModelRef  `json:"ref"`
	Domain string       `json:"domain,omitempty"`
	Spec   ir.ModelSpec `json:"spec"`
}

// Input is the comparison request.
type Input struct {
	Left          Side
	Right         Side
	OutcomeVar    string
	Interventions []string
}

// Atom weights used by the score.
const (
	WeightHigh   = 1.0
	WeightMedium = 0.5
	WeightLow    = 0.2
)

// Options tune a comparison.
type Options struct {
	// MinConfidence is the alignment confidence below which a match is
	// treated as ambiguous.
	MinConfidence float64

	// CoverageThreshold is recorded on the report for the promotion gate.
	CoverageThreshold float64

	// Tolerance is the absolute delta difference below which two
	// counterfactual answers agree.
	Tolerance float64

	Limits      graph.Limits
	Sensitivity float64
}

// DefaultOptions returns the standard comparison settings.
func DefaultOptions() Options {
	return Options{
		MinConfidence:     0.75,
		CoverageThreshold: 0.95,
		Tolerance:         1e-6,
		Limits:            graph.DefaultLimits(),
		Sensitivity:       counterfactual.DefaultSensitivity,
	}
}

// Compare builds the disagreement report of in. The report ID is left for
// the caller to stamp. aligner may be nil, in which case names are matched
// by normalized form only.
//
// Returns MALFORMED_GRAPH if either spec does not hydrate and INVALID_CLAIM
// if the outcome variable is blank or absent from both sides.
func Compare(in Input, aligner Aligner, opts Options) (ir.DisagreementReport, error) {
	if strings.TrimSpace(in.OutcomeVar) == "" {
		return ir.DisagreementReport{}, ir.NewError(ir.ErrCodeInvalidClaim, "outcome variable is required")
	}

	lg, err := graph.Hydrate(in.Left.Spec.DAGSpec, graph.WithLimits(opts.Limits))
	if err != nil {
		return ir.DisagreementReport{}, fmt.Errorf("left model %s: %w", in.Left.Ref, err)
	}
	rg, err := graph.Hydrate(in.Right.Spec.DAGSpec, graph.WithLimits(opts.Limits))
	if err != nil {
		return ir.DisagreementReport{}, fmt.Errorf("right model %s: %w", in.Right.Ref, err)
	}

	r := resolver{aligner: aligner, minConfidence: opts.MinConfidence}
	c := &comparison{
		opts:  opts,
		left:  newView(in.Left, lg, r),
		right: newView(in.Right, rg, r),
	}
	c.alignment = alignSides(c.left, c.right, opts.CoverageThreshold)

	outcomeKey, _, ok := r.resolve(in.OutcomeVar)
	if !ok || (c.left.nameOf[outcomeKey] == "" && c.right.nameOf[outcomeKey] == "") {
		return ir.DisagreementReport{}, ir.NewError(ir.ErrCodeInvalidClaim,
			"outcome variable %q is not in either model", in.OutcomeVar).WithDetail("variable", in.OutcomeVar)
	}
	c.outcome = outcomeKey

	var interventions []string
	for _, name := range in.Interventions {
		if key, _, ok := r.resolve(name); ok && key != outcomeKey {
			interventions = append(interventions, key)
		}
	}
	c.interventions = dedupe(interventions)
	c.severity = c.buildSeverityIndex()

	c.diffEdges()
	c.diffAssumptions()
	c.diffConfounders()
	c.diffCounterfactuals()

	sort.Slice(c.atoms, func(i, j int) bool {
		return c.atoms[i].ID < c.atoms[j].ID
	})

	report := ir.DisagreementReport{
		Left:             in.Left.Ref,
		Right:            in.Right.Ref,
		OutcomeVar:       in.OutcomeVar,
		Atoms:            c.atoms,
		AlignedVariables: c.alignment.aligned,
		UnknownVariables: c.alignment.unknown,
		AlignmentQuality: c.alignment.quality,
	}
	if report.Atoms == nil {
		report.Atoms = []ir.DisagreementAtom{}
	}
	report.Score = Score(report.Atoms, c.edgeLoci)
	report.Summary = Summarize(report)
	return report, nil
}

// comparison carries the state of one Compare call.
type comparison struct {
	opts          Options
	left, right   *view
	alignment     alignment
	outcome       string
	interventions []string
	severity      severityIndex
	atoms         []ir.DisagreementAtom
	edgeLoci      int
}

// Score weights atoms by severity and normalizes by the number of aligned
// edge loci, clamped to [0,1].
func Score(atoms []ir.DisagreementAtom, edgeLoci int) float64 {
	var total float64
	for _, a := range atoms {
		switch a.Severity {
		case ir.SeverityHigh:
			total += WeightHigh
		case ir.SeverityMedium:
			total += WeightMedium
		default:
			total += WeightLow
		}
	}
	score := total / float64(max(1, edgeLoci))
	return math.Min(1, math.Max(0, score))
}

// Summarize renders the one-line report summary.
func Summarize(r ir.DisagreementReport) string {
	counts := r.CountBySeverity()
	return fmt.Sprintf("%d disagreements (%d high, %d medium, %d low); score %.2f; coverage %.0f%%",
		len(r.Atoms), counts[ir.SeverityHigh], counts[ir.SeverityMedium], counts[ir.SeverityLow],
		r.Score, r.AlignmentQuality.Coverage*100)
}

func (c *comparison) add(atom ir.DisagreementAtom, locus string) {
	atom.ID = string(atom.Type) + ":" + locus
	c.atoms = append(c.atoms, atom)
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
