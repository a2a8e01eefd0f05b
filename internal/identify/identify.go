// Package identify decides whether a causal claim is identifiable from a
// graph and a proposed adjustment set.
//
// The check is a common-ancestor approximation of the backdoor criterion:
// a node is a required confounder of (treatment, outcome) when it is an
// ancestor of the treatment and reaches the outcome without passing through
// the treatment. Collider-aware backdoor path enumeration is not attempted.
package identify

import (
	"fmt"
	"strings"

	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/validation"
)

// Claim is a proposed causal effect of Treatment on Outcome.
type Claim struct {
	Treatment        string   `json:"treatment" yaml:"treatment" validate:"notblank"`
	Outcome          string   `json:"outcome" yaml:"outcome" validate:"notblank"`
	AdjustmentSet    []string `json:"adjustment_set,omitempty" yaml:"adjustment_set,omitempty"`
	KnownConfounders []string `json:"known_confounders,omitempty" yaml:"known_confounders,omitempty"`
}

// Result is the answer of Check.
type Result struct {
	Identifiable        bool     `json:"identifiable"`
	RequiredConfounders []string `json:"required_confounders"`
	AdjustmentSet       []string `json:"adjustment_set"`
	MissingConfounders  []string `json:"missing_confounders"`

	// RejectedConfounders are caller-declared confounders that fail the
	// ancestry test. They are reported, never added to the required set.
	RejectedConfounders []string `json:"rejected_confounders,omitempty"`

	// Controls are the declared controls that survived the checks:
	// adjustment variables in the graph that are neither the outcome nor a
	// descendant of the treatment, plus accepted known confounders.
	Controls []string `json:"controls"`

	Note string `json:"note,omitempty"`
}

// Check computes the required confounders of the claim and reports which
// of them the adjustment set leaves uncontrolled.
//
// Returns an INVALID_CLAIM error (and Identifiable=false) when treatment or
// outcome is blank, unknown to the graph, or the two are the same node.
func Check(g *graph.Graph, claim Claim) (Result, error) {
	if err := validation.Struct(claim); err != nil {
		return Result{}, ir.NewError(ir.ErrCodeInvalidClaim, "%s", err.Error())
	}
	for _, name := range []string{claim.Treatment, claim.Outcome} {
		if !g.Has(name) {
			return Result{}, ir.NewError(ir.ErrCodeInvalidClaim, "unknown variable %q", name).
				WithDetail("variable", name)
		}
	}
	if claim.Treatment == claim.Outcome {
		return Result{}, ir.NewError(ir.ErrCodeInvalidClaim, "treatment and outcome are both %q", claim.Treatment)
	}

	required, err := RequiredConfounders(g, claim.Treatment, claim.Outcome)
	if err != nil {
		return Result{}, err
	}
	isRequired := toSet(required)

	adjustment := dedupe(claim.AdjustmentSet)
	adjusted := toSet(adjustment)

	var notes []string

	var rejected []string
	for _, c := range dedupe(claim.KnownConfounders) {
		if !isRequired[c] {
			rejected = append(rejected, c)
		}
	}
	if len(rejected) > 0 {
		notes = append(notes, fmt.Sprintf("declared confounders %s are not common causes of %s and %s",
			strings.Join(rejected, ", "), claim.Treatment, claim.Outcome))
	}

	var unknown []string
	for _, a := range adjustment {
		if !g.Has(a) {
			unknown = append(unknown, a)
		}
	}
	if len(unknown) > 0 {
		notes = append(notes, fmt.Sprintf("adjustment variables %s are not in the graph", strings.Join(unknown, ", ")))
	}

	descendants, err := g.DescendantsOf(claim.Treatment)
	if err != nil {
		return Result{}, err
	}
	isDescendant := toSet(descendants)
	var bad []string
	for _, d := range descendants {
		if adjusted[d] {
			bad = append(bad, d)
		}
	}
	if len(bad) > 0 {
		notes = append(notes, fmt.Sprintf("adjusting for descendants of %s (%s) may bias the estimate",
			claim.Treatment, strings.Join(bad, ", ")))
	}

	controls := make([]string, 0)
	for _, a := range adjustment {
		if g.Has(a) && !isDescendant[a] && a != claim.Treatment && a != claim.Outcome {
			controls = append(controls, a)
		}
	}
	for _, c := range dedupe(claim.KnownConfounders) {
		if isRequired[c] && !adjusted[c] {
			controls = append(controls, c)
		}
	}

	missing := make([]string, 0)
	for _, c := range required {
		if !adjusted[c] {
			missing = append(missing, c)
		}
	}

	return Result{
		Identifiable:        len(missing) == 0,
		RequiredConfounders: required,
		AdjustmentSet:       adjustment,
		MissingConfounders:  missing,
		RejectedConfounders: rejected,
		Controls:            controls,
		Note:                strings.Join(notes, "; "),
	}, nil
}

// RequiredConfounders returns the common causes of treatment and outcome in
// declaration order: ancestors of treatment that reach outcome along a path
// avoiding treatment.
func RequiredConfounders(g *graph.Graph, treatment, outcome string) ([]string, error) {
	ofTreatment, err := g.AncestorsOf(treatment)
	if err != nil {
		return nil, err
	}
	ofOutcome, err := g.AncestorsAvoiding(outcome, treatment)
	if err != nil {
		return nil, err
	}

	reachesOutcome := toSet(ofOutcome)
	required := make([]string, 0)
	for _, a := range ofTreatment {
		if reachesOutcome[a] {
			required = append(required, a)
		}
	}
	return required, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

// dedupe drops repeated and blank names, keeping first-seen order.
func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
