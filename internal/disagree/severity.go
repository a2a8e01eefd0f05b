package disagree

import (
	"github.com/roach88/causalcore/internal/identify"
	"github.com/roach88/causalcore/internal/ir"
)

// severityIndex classifies keys by their role relative to the outcome,
// taken over the union of both sides:
//   - high: the outcome, its direct parents, and required confounders of
//     any requested intervention
//   - medium: intermediate mediators (ancestors of the outcome that have
//     parents of their own)
type severityIndex struct {
	high   map[string]bool
	medium map[string]bool
}

func (c *comparison) buildSeverityIndex() severityIndex {
	idx := severityIndex{
		high:   map[string]bool{c.outcome: true},
		medium: make(map[string]bool),
	}

	for _, v := range []*view{c.left, c.right} {
		outcome, ok := v.nameOf[c.outcome]
		if !ok || !v.g.Has(outcome) {
			continue
		}

		for _, p := range v.g.Parents(outcome) {
			if k, ok := v.keyOf[p]; ok {
				idx.high[k] = true
			}
		}

		for _, x := range c.interventions {
			treatment, ok := v.nameOf[x]
			if !ok || !v.g.Has(treatment) {
				continue
			}
			required, err := identify.RequiredConfounders(v.g, treatment, outcome)
			if err != nil {
				continue
			}
			for _, r := range required {
				if k, ok := v.keyOf[r]; ok {
					idx.high[k] = true
				}
			}
		}

		ancestors, err := v.g.AncestorsOf(outcome)
		if err != nil {
			continue
		}
		for _, a := range ancestors {
			if len(v.g.Parents(a)) == 0 {
				continue
			}
			if k, ok := v.keyOf[a]; ok {
				idx.medium[k] = true
			}
		}
	}
	return idx
}

// of returns the strongest severity of any key.
func (s severityIndex) of(keys ...string) ir.Severity {
	severity := ir.SeverityLow
	for _, k := range keys {
		if s.high[k] {
			return ir.SeverityHigh
		}
		if s.medium[k] {
			severity = ir.SeverityMedium
		}
	}
	return severity
}

// weigh splits an atom's epistemic weight across the provenance of the
// declarations it rests on. No declarations means bare assumption.
func weigh(tags []ir.Provenance) ir.EpistemicWeight {
	if len(tags) == 0 {
		return ir.EpistemicWeight{AssumptionGrounded: 1}
	}
	var data, mechanism, assumption int
	for _, t := range tags {
		switch t {
		case ir.ProvenanceData:
			data++
		case ir.ProvenanceMechanism:
			mechanism++
		default:
			assumption++
		}
	}
	n := float64(len(tags))
	return ir.EpistemicWeight{
		DataGrounded:       float64(data) / n,
		MechanismGrounded:  float64(mechanism) / n,
		AssumptionGrounded: float64(assumption) / n,
	}
}

// edgeProvenance is the declared provenance of an edge; untagged edges
// with a mechanism count as mechanism-grounded.
func edgeProvenance(e ir.EdgeSpec) ir.Provenance {
	switch {
	case e.Provenance != "":
		return e.Provenance
	case e.Mechanism != "":
		return ir.ProvenanceMechanism
	default:
		return ir.ProvenanceAssumption
	}
}

func assumptionProvenance(a ir.Assumption) ir.Provenance {
	if a.Provenance != "" {
		return a.Provenance
	}
	return ir.ProvenanceAssumption
}
