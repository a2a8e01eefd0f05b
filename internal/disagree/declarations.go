package disagree

import (
	"sort"

	"github.com/roach88/causalcore/internal/align"
	"github.com/roach88/causalcore/internal/ir"
)

// assumptionKey identifies an assumption across models: its ID when set,
// otherwise its normalized text.
func assumptionKey(a ir.Assumption) string {
	if a.ID != "" {
		return a.ID
	}
	return align.Normalize(a.Text)
}

func assumptionsByKey(spec ir.ModelSpec) map[string]ir.Assumption {
	out := make(map[string]ir.Assumption, len(spec.Assumptions))
	for _, a := range spec.Assumptions {
		k := assumptionKey(a)
		if _, dup := out[k]; !dup {
			out[k] = a
		}
	}
	return out
}

// variableKeys maps an assumption's variables into key space.
func variableKeys(v *view, a ir.Assumption) []string {
	var keys []string
	for _, name := range a.Variables {
		if k, ok := v.keyOf[name]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (c *comparison) diffAssumptions() {
	lm, rm := assumptionsByKey(c.left.side.Spec), assumptionsByKey(c.right.side.Spec)

	keys := make([]string, 0, len(lm)+len(rm))
	for k := range lm {
		keys = append(keys, k)
	}
	for k := range rm {
		if _, ok := lm[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		la, inLeft := lm[k]
		ra, inRight := rm[k]
		if inLeft && inRight && align.Normalize(la.Text) == align.Normalize(ra.Text) {
			continue
		}

		atom := ir.DisagreementAtom{
			Type:   ir.AtomAssumption,
			Left:   absent,
			Right:  absent,
			Reason: "assumption declared by one model only",
		}
		var related []string
		var tags []ir.Provenance
		if inLeft {
			atom.Left = la.Text
			related = append(related, variableKeys(c.left, la)...)
			tags = append(tags, assumptionProvenance(la))
		}
		if inRight {
			atom.Right = ra.Text
			related = append(related, variableKeys(c.right, ra)...)
			tags = append(tags, assumptionProvenance(ra))
		}
		if inLeft && inRight {
			atom.Reason = "models state the assumption differently"
		}

		related = dedupe(related)
		sort.Strings(related)
		for _, r := range related {
			if c.alignment.has(r) {
				atom.Variable = c.alignment.display[r]
				break
			}
		}
		atom.Severity = c.severity.of(related...)
		atom.EpistemicWeight = weigh(tags)
		c.add(atom, k)
	}
}

func (c *comparison) confounderKeys(v *view) map[string]bool {
	out := make(map[string]bool)
	for _, name := range v.side.Spec.Confounders {
		if k, ok := v.keyOf[name]; ok && c.alignment.has(k) {
			out[k] = true
		}
	}
	return out
}

func (c *comparison) diffConfounders() {
	lc, rc := c.confounderKeys(c.left), c.confounderKeys(c.right)

	keys := make([]string, 0, len(lc)+len(rc))
	for k := range lc {
		if !rc[k] {
			keys = append(keys, k)
		}
	}
	for k := range rc {
		if !lc[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		atom := ir.DisagreementAtom{
			Type:     ir.AtomConfounder,
			Severity: c.severity.of(k),
			Left:     absent,
			Right:    absent,
			Variable: c.alignment.display[k],
			Reason:   "confounder declared by one model only",
			// A declared confounder is a bare assumption about the world.
			EpistemicWeight: weigh(nil),
		}
		if lc[k] {
			atom.Left = "declared"
		} else {
			atom.Right = "declared"
		}
		c.add(atom, atom.Variable)
	}
}
