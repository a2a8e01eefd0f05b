// Package promotion decides whether a candidate model version may become
// current.
//
// Policy, in order:
//  1. An integrity freeze blocks unconditionally; no override bypasses it
//  2. Unresolved high-severity atoms block unless a valid override is given
//  3. Cross-domain promotions need alignment coverage at the threshold,
//     override or not
//  4. Otherwise the promotion is allowed
//
// The gate is pure. Flipping the current version and writing the audit
// record belong to the caller.
package promotion

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/validation"
)

// DefaultCrossDomainCoverage is the minimum alignment coverage for
// promotions across domains.
const DefaultCrossDomainCoverage = 0.95

// Request is the input of Evaluate.
type Request struct {
	Report      ir.DisagreementReport
	CrossDomain bool
	Override    *ir.Override
	Integrity   ir.IntegrityStatus

	// CandidateVersion, when set, must match Override.Version if the
	// override names one.
	CandidateVersion string
}

// Gate evaluates promotion requests.
type Gate struct {
	crossDomainCoverage float64
}

// Option configures a Gate.
type Option func(*Gate)

// WithCrossDomainCoverage overrides the cross-domain coverage threshold.
func WithCrossDomainCoverage(c float64) Option {
	return func(g *Gate) {
		if c > 0 && c <= 1 {
			g.crossDomainCoverage = c
		}
	}
}

// New creates a Gate.
func New(opts ...Option) *Gate {
	g := &Gate{crossDomainCoverage: DefaultCrossDomainCoverage}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate applies the promotion policy with default settings.
func Evaluate(req Request) ir.PromotionDecision {
	return New().Evaluate(req)
}

// Evaluate applies the promotion policy.
func (g *Gate) Evaluate(req Request) ir.PromotionDecision {
	counts := req.Report.CountBySeverity()
	crossDomain := req.CrossDomain || req.Report.AlignmentQuality.CrossDomain
	overrideOK, overrideProblem := ValidOverride(req.Override, req.CandidateVersion)

	// A rejected override acknowledges nothing.
	var override *ir.Override
	if overrideOK {
		override = req.Override
	}
	unresolved := UnresolvedHighSeverity(req.Report, override)

	d := ir.PromotionDecision{
		IntegrityFrozen:             req.Integrity.FreezePromotion,
		CrossDomain:                 crossDomain,
		AlignmentCoverage:           req.Report.AlignmentQuality.Coverage,
		HighSeverityAtoms:           counts[ir.SeverityHigh],
		UnresolvedHighSeverityAtoms: len(unresolved),
		AtomCounts:                  counts,
	}

	switch {
	case req.Integrity.FreezePromotion:
		d.Blocked = true
		d.Reason = ir.ReasonIntegrityFrozen
		d.Detail = "promotion frozen by failing integrity checks: " + strings.Join(failingBlockers(req.Integrity), ", ")

	case len(unresolved) > 0 && !overrideOK:
		d.Blocked = true
		d.Reason = ir.ReasonUnresolvedHighSeverity
		d.RequiresManualOverride = true
		d.Detail = fmt.Sprintf("%d unresolved high-severity atoms: %s", len(unresolved), strings.Join(unresolved, ", "))
		if req.Override != nil {
			d.Detail += "; override rejected: " + overrideProblem
		}

	case crossDomain && req.Report.AlignmentQuality.Coverage < g.crossDomainCoverage:
		d.Blocked = true
		d.Reason = ir.ReasonInsufficientCoverage
		d.Detail = fmt.Sprintf("cross-domain promotion needs alignment coverage >= %.2f, got %.2f",
			g.crossDomainCoverage, req.Report.AlignmentQuality.Coverage)

	default:
		d.Allowed = true
		d.OverrideUsed = overrideOK && counts[ir.SeverityHigh] > 0
		if d.OverrideUsed {
			d.Reason = ir.ReasonOverrideAccepted
			d.Detail = fmt.Sprintf("override by %s covers %d high-severity atoms (%d unacknowledged)",
				req.Override.Actor, counts[ir.SeverityHigh], len(unresolved))
		} else {
			d.Reason = ir.ReasonClear
			d.Detail = req.Report.Summary
		}
	}
	return d
}

// ValidOverride reports whether o can be consumed for candidateVersion.
// When it cannot, problem says why.
func ValidOverride(o *ir.Override, candidateVersion string) (ok bool, problem string) {
	if o == nil {
		return false, "no override"
	}
	if err := validation.Struct(o); err != nil {
		return false, err.Error()
	}
	if o.Version != "" && candidateVersion != "" && o.Version != candidateVersion {
		return false, fmt.Sprintf("override is for version %q, not %q", o.Version, candidateVersion)
	}
	return true, ""
}

// UnresolvedHighSeverity returns the IDs of high-severity atoms the
// override does not acknowledge, in report order. An atom counts as
// acknowledged when its ID is listed in AcknowledgedAtoms or the rationale
// names its ID or edge.
func UnresolvedHighSeverity(report ir.DisagreementReport, o *ir.Override) []string {
	acked := make(map[string]bool)
	var rationale string
	if o != nil {
		for _, id := range o.AcknowledgedAtoms {
			acked[id] = true
		}
		rationale = o.Rationale
	}

	out := make([]string, 0)
	for _, atom := range report.Atoms {
		if atom.Severity != ir.SeverityHigh {
			continue
		}
		if acked[atom.ID] || mentions(rationale, atom) {
			continue
		}
		out = append(out, atom.ID)
	}
	return out
}

// mentions reports whether a rationale names the atom's ID or edge as a
// whole token: "BX->Y" does not mention edge "X->Y".
func mentions(rationale string, atom ir.DisagreementAtom) bool {
	if rationale == "" {
		return false
	}
	for _, needle := range []string{atom.ID, atom.Edge} {
		if needle != "" && containsToken(rationale, needle) {
			return true
		}
	}
	return false
}

// containsToken reports whether needle occurs in s with no identifier
// character directly before or after it.
func containsToken(s, needle string) bool {
	for offset := 0; offset <= len(s)-len(needle); {
		i := strings.Index(s[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(needle)
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		after, _ := utf8.DecodeRuneInString(s[end:])
		if (start == 0 || !isIdentRune(before)) && (end == len(s) || !isIdentRune(after)) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func failingBlockers(s ir.IntegrityStatus) []string {
	var out []string
	for _, c := range s.Checks {
		if c.Blocking && !c.Passing {
			out = append(out, c.Name)
		}
	}
	if len(out) == 0 {
		out = append(out, "freeze flag set")
	}
	return out
}
