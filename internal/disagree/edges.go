package disagree

import (
	"sort"
	"strings"

	"github.com/roach88/causalcore/internal/ir"
)

const absent = "absent"

// locus is a directed edge in key space.
type locus struct {
	from, to string
}

// edgeMap groups a side's edges by aligned locus. Edges touching an
// unaligned variable are skipped.
func (c *comparison) edgeMap(v *view) map[locus][]ir.EdgeSpec {
	out := make(map[locus][]ir.EdgeSpec)
	for _, e := range v.g.Edges() {
		from, ok1 := v.keyOf[e.From]
		to, ok2 := v.keyOf[e.To]
		if !ok1 || !ok2 || !c.alignment.has(from) || !c.alignment.has(to) {
			continue
		}
		l := locus{from, to}
		out[l] = append(out[l], e)
	}
	return out
}

// direction returns the locus connecting a and b on one side, if any.
// Each side is acyclic, so at most one direction exists.
func direction(m map[locus][]ir.EdgeSpec, a, b string) (locus, bool) {
	if _, ok := m[locus{a, b}]; ok {
		return locus{a, b}, true
	}
	if _, ok := m[locus{b, a}]; ok {
		return locus{b, a}, true
	}
	return locus{}, false
}

func (c *comparison) label(l locus) string {
	return c.alignment.display[l.from] + "->" + c.alignment.display[l.to]
}

func (c *comparison) diffEdges() {
	lm, rm := c.edgeMap(c.left), c.edgeMap(c.right)

	// Unordered pairs keep direction flips on one locus.
	pairs := make(map[[2]string]bool)
	for _, m := range []map[locus][]ir.EdgeSpec{lm, rm} {
		for l := range m {
			a, b := l.from, l.to
			if b < a {
				a, b = b, a
			}
			pairs[[2]string{a, b}] = true
		}
	}
	c.edgeLoci = len(pairs)

	for pair := range pairs {
		a, b := pair[0], pair[1]
		ll, inLeft := direction(lm, a, b)
		rl, inRight := direction(rm, a, b)
		severity := c.severity.of(a, b)

		switch {
		case inLeft && inRight && ll == rl:
			ls, rs := signs(lm[ll]), signs(rm[rl])
			if ls == rs {
				continue
			}
			c.add(ir.DisagreementAtom{
				Type:            ir.AtomEdgeSign,
				Severity:        severity,
				Left:            ls,
				Right:           rs,
				Edge:            c.label(ll),
				Reason:          "models disagree on the sign of the effect",
				EpistemicWeight: weigh(edgeTags(lm[ll], rm[rl])),
			}, c.label(ll))

		case inLeft && inRight:
			loc := c.pairLabel(a, b)
			c.add(ir.DisagreementAtom{
				Type:            ir.AtomEdgeDirection,
				Severity:        severity,
				Left:            c.label(ll),
				Right:           c.label(rl),
				Edge:            loc,
				Reason:          "models disagree on the direction of causation",
				EpistemicWeight: weigh(edgeTags(lm[ll], rm[rl])),
			}, loc)

		case inLeft:
			c.add(ir.DisagreementAtom{
				Type:            ir.AtomEdgePresence,
				Severity:        severity,
				Left:            c.label(ll),
				Right:           absent,
				Edge:            c.label(ll),
				Reason:          "edge declared by one model only",
				EpistemicWeight: weigh(edgeTags(lm[ll])),
			}, c.label(ll))

		default:
			c.add(ir.DisagreementAtom{
				Type:            ir.AtomEdgePresence,
				Severity:        severity,
				Left:            absent,
				Right:           c.label(rl),
				Edge:            c.label(rl),
				Reason:          "edge declared by one model only",
				EpistemicWeight: weigh(edgeTags(rm[rl])),
			}, c.label(rl))
		}
	}
}

// pairLabel renders an unordered pair with display names in sorted order.
func (c *comparison) pairLabel(a, b string) string {
	da, db := c.alignment.display[a], c.alignment.display[b]
	if db < da {
		da, db = db, da
	}
	return da + "<->" + db
}

// signs renders the distinct signs of parallel edges, sorted.
func signs(edges []ir.EdgeSpec) string {
	set := make(map[string]bool)
	for _, e := range edges {
		set[string(e.Sign)] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

func edgeTags(groups ...[]ir.EdgeSpec) []ir.Provenance {
	var tags []ir.Provenance
	for _, g := range groups {
		for _, e := range g {
			tags = append(tags, edgeProvenance(e))
		}
	}
	return tags
}
