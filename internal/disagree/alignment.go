package disagree

import (
	"sort"
	"strings"

	"github.com/roach88/causalcore/internal/align"
	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
)

// Aligner resolves a variable name to a canonical variable.
// *align.Table implements it.
type Aligner interface {
	Align(name string) ir.Alignment
}

// fallbackPrefix keeps keys derived from name normalization apart from
// canonical names returned by an Aligner.
const fallbackPrefix = "~"

// view is one side of a comparison projected into key space.
type view struct {
	side      Side
	g         *graph.Graph
	keyOf     map[string]string       // name -> key, confidently aligned names only
	nameOf    map[string]string       // key -> name
	alignment map[string]ir.Alignment // key -> how it was matched
	ambiguous map[string]bool         // names that could not be aligned
}

// resolver maps names to keys with one aligner and threshold, so both
// sides of a comparison are resolved identically.
type resolver struct {
	aligner       Aligner
	minConfidence float64
}

// resolve returns the key for name. ok is false when the aligner returned
// an ambiguous or low-confidence match.
func (r resolver) resolve(name string) (key string, a ir.Alignment, ok bool) {
	if r.aligner != nil {
		a = r.aligner.Align(name)
		switch {
		case a.Canonical != "" && a.Confidence >= r.minConfidence:
			return a.Canonical, a, true
		case a.Canonical != "" || a.MatchedBy == align.MatchAmbiguous:
			return "", a, false
		}
	}
	normalized := align.Normalize(name)
	if normalized == "" {
		return "", ir.Alignment{MatchedBy: align.MatchNone}, false
	}
	return fallbackPrefix + normalized, ir.Alignment{
		Canonical:  name,
		Confidence: align.ConfidenceNormalized,
		MatchedBy:  align.MatchNormalized,
	}, true
}

// referenced lists every name a side mentions: nodes first, then declared
// confounders that are not nodes.
func referenced(s Side) []string {
	names := make([]string, 0, len(s.Spec.Nodes)+len(s.Spec.Confounders))
	seen := make(map[string]bool)
	for _, n := range s.Spec.Nodes {
		if !seen[n.Name] {
			seen[n.Name] = true
			names = append(names, n.Name)
		}
	}
	for _, c := range s.Spec.Confounders {
		if !seen[c] {
			seen[c] = true
			names = append(names, c)
		}
	}
	return names
}

func newView(s Side, g *graph.Graph, r resolver) *view {
	v := &view{
		side:      s,
		g:         g,
		keyOf:     make(map[string]string),
		nameOf:    make(map[string]string),
		alignment: make(map[string]ir.Alignment),
		ambiguous: make(map[string]bool),
	}

	claimed := make(map[string][]string) // key -> names on this side
	for _, name := range referenced(s) {
		key, a, ok := r.resolve(name)
		if !ok {
			v.ambiguous[name] = true
			continue
		}
		claimed[key] = append(claimed[key], name)
		v.alignment[key] = a
	}

	for key, names := range claimed {
		if len(names) > 1 {
			// Two names on one side collapse onto one variable.
			for _, n := range names {
				v.ambiguous[n] = true
			}
			delete(v.alignment, key)
			continue
		}
		v.keyOf[names[0]] = key
		v.nameOf[key] = names[0]
	}
	return v
}

// alignment is the cross-side result of variable alignment.
type alignment struct {
	display map[string]string // key -> display name
	aligned []ir.AlignedVariable
	unknown []string
	quality ir.AlignmentQuality
}

// has reports whether key is aligned across both sides.
func (a alignment) has(key string) bool {
	_, ok := a.display[key]
	return ok
}

func alignSides(left, right *view, threshold float64) alignment {
	out := alignment{display: make(map[string]string)}

	keys := make(map[string]bool)
	for k := range left.nameOf {
		keys[k] = true
	}
	for k := range right.nameOf {
		keys[k] = true
	}

	unknown := make(map[string]bool)
	for n := range left.ambiguous {
		unknown[n] = true
	}
	for n := range right.ambiguous {
		unknown[n] = true
	}

	for k := range keys {
		ln, inLeft := left.nameOf[k]
		rn, inRight := right.nameOf[k]
		switch {
		case inLeft && inRight:
			la, ra := left.alignment[k], right.alignment[k]
			weakest := la
			if ra.Confidence < la.Confidence {
				weakest = ra
			}
			display := k
			if strings.HasPrefix(k, fallbackPrefix) {
				display = min(ln, rn)
			}
			out.display[k] = display
			out.aligned = append(out.aligned, ir.AlignedVariable{
				Canonical:  display,
				Left:       ln,
				Right:      rn,
				Confidence: weakest.Confidence,
				MatchedBy:  weakest.MatchedBy,
			})
		case inLeft:
			unknown[ln] = true
		default:
			unknown[rn] = true
		}
	}

	sort.Slice(out.aligned, func(i, j int) bool {
		return out.aligned[i].Canonical < out.aligned[j].Canonical
	})
	out.unknown = make([]string, 0, len(unknown))
	for n := range unknown {
		out.unknown = append(out.unknown, n)
	}
	sort.Strings(out.unknown)
	if out.aligned == nil {
		out.aligned = []ir.AlignedVariable{}
	}

	total := len(out.aligned) + len(out.unknown)
	coverage := 1.0
	if total > 0 {
		coverage = float64(len(out.aligned)) / float64(total)
	}
	out.quality = ir.AlignmentQuality{
		Coverage:    coverage,
		Threshold:   threshold,
		CrossDomain: left.side.Domain != "" && right.side.Domain != "" && left.side.Domain != right.side.Domain,
	}
	return out
}
