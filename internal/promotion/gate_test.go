package promotion

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/causalcore/internal/ir"
)

func atom(id string, severity ir.Severity) ir.DisagreementAtom {
	return ir.DisagreementAtom{ID: id, Type: ir.AtomEdgePresence, Severity: severity, Edge: id}
}

func report(coverage float64, atoms ...ir.DisagreementAtom) ir.DisagreementReport {
	return ir.DisagreementReport{
		Atoms:            atoms,
		Summary:          "test report",
		AlignmentQuality: ir.AlignmentQuality{Coverage: coverage, Threshold: 0.95},
	}
}

func override() *ir.Override {
	return &ir.Override{Actor: "reviewer", Rationale: "reviewed with the domain team", Version: "v2"}
}

func TestEvaluate_UnresolvedHighWithoutOverride(t *testing.T) {
	d := Evaluate(Request{
		Report: report(1, atom("edge_presence:A->B", ir.SeverityHigh), atom("edge_sign:B->C", ir.SeverityHigh)),
	})

	assert.True(t, d.Blocked)
	assert.False(t, d.Allowed)
	assert.True(t, d.RequiresManualOverride)
	assert.Equal(t, ir.ReasonUnresolvedHighSeverity, d.Reason)
	assert.Equal(t, 2, d.UnresolvedHighSeverityAtoms)
	assert.Equal(t, 2, d.HighSeverityAtoms)
	assert.Contains(t, d.Detail, "edge_presence:A->B, edge_sign:B->C")
}

func TestEvaluate_ValidOverrideAllows(t *testing.T) {
	d := Evaluate(Request{
		Report:           report(1, atom("edge_presence:A->B", ir.SeverityHigh), atom("x", ir.SeverityLow)),
		Override:         override(),
		CandidateVersion: "v2",
	})

	assert.True(t, d.Allowed)
	assert.True(t, d.OverrideUsed)
	assert.Equal(t, ir.ReasonOverrideAccepted, d.Reason)
	assert.Equal(t, map[ir.Severity]int{ir.SeverityHigh: 1, ir.SeverityMedium: 0, ir.SeverityLow: 1}, d.AtomCounts)
}

func TestEvaluate_AcknowledgedAtomsAreResolved(t *testing.T) {
	o := override()
	o.AcknowledgedAtoms = []string{"a1"}
	o.Rationale = "the B->C edge was reviewed in the audit"

	d := Evaluate(Request{
		Report:   report(1, atom("a1", ir.SeverityHigh), atom("B->C", ir.SeverityHigh), atom("a3", ir.SeverityHigh)),
		Override: o,
	})

	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.UnresolvedHighSeverityAtoms)
	assert.Equal(t, []string{"a3"}, UnresolvedHighSeverity(report(1, atom("a1", ir.SeverityHigh), atom("B->C", ir.SeverityHigh), atom("a3", ir.SeverityHigh)), o))
}

func TestUnresolvedHighSeverity_RationaleMatchesWholeEdges(t *testing.T) {
	r := report(1, atom("X->Y", ir.SeverityHigh), atom("edge_sign:A->B", ir.SeverityHigh))

	tests := []struct {
		rationale string
		want      []string
	}{
		{"the BX->Y edge was reviewed", []string{"X->Y", "edge_sign:A->B"}},
		{"X->YZ is a different edge", []string{"X->Y", "edge_sign:A->B"}},
		{"reviewed X->Y, keeping it", []string{"edge_sign:A->B"}},
		{"(X->Y) and edge_sign:A->B reviewed", []string{}},
		{"edge_sign:A->B2 only", []string{"X->Y", "edge_sign:A->B"}},
	}
	for _, tt := range tests {
		t.Run(tt.rationale, func(t *testing.T) {
			o := override()
			o.Rationale = tt.rationale
			assert.Equal(t, tt.want, UnresolvedHighSeverity(r, o))
		})
	}
}

func TestEvaluate_RejectedOverrides(t *testing.T) {
	tests := []struct {
		name     string
		override *ir.Override
		problem  string
	}{
		{"missing actor", &ir.Override{Rationale: "long enough rationale"}, "actor: field is required"},
		{"short rationale", &ir.Override{Actor: "r", Rationale: "ok"}, "rationale: must be at least 10"},
		{"wrong version", &ir.Override{Actor: "r", Rationale: "long enough rationale", Version: "v9"}, `override is for version "v9", not "v2"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(Request{
				Report:           report(1, atom("a1", ir.SeverityHigh)),
				Override:         tt.override,
				CandidateVersion: "v2",
			})
			assert.True(t, d.Blocked)
			assert.True(t, d.RequiresManualOverride)
			assert.Contains(t, d.Detail, tt.problem)
		})
	}
}

func TestEvaluate_RejectedOverrideAcknowledgesNothing(t *testing.T) {
	d := Evaluate(Request{
		Report:   report(1, atom("a1", ir.SeverityHigh)),
		Override: &ir.Override{Actor: "r", Rationale: "a1", AcknowledgedAtoms: []string{"a1"}},
	})
	assert.True(t, d.Blocked)
	assert.Equal(t, 1, d.UnresolvedHighSeverityAtoms)
}

func TestEvaluate_IntegrityFreezeBeatsOverride(t *testing.T) {
	d := Evaluate(Request{
		Report:   report(1),
		Override: override(),
		Integrity: ir.IntegrityStatus{
			FreezePromotion: true,
			Checks: []ir.IntegrityCheck{
				{Name: "replication", Passing: false, Blocking: true},
				{Name: "preregistration", Passing: false, Blocking: false},
			},
		},
	})

	assert.True(t, d.Blocked)
	assert.True(t, d.IntegrityFrozen)
	assert.False(t, d.RequiresManualOverride)
	assert.Equal(t, ir.ReasonIntegrityFrozen, d.Reason)
	assert.Equal(t, "promotion frozen by failing integrity checks: replication", d.Detail)
}

func TestEvaluate_CrossDomainCoverage(t *testing.T) {
	d := Evaluate(Request{Report: report(0.9), CrossDomain: true, Override: override()})
	assert.True(t, d.Blocked)
	assert.Equal(t, ir.ReasonInsufficientCoverage, d.Reason)
	assert.False(t, d.RequiresManualOverride)

	r := report(0.9)
	r.AlignmentQuality.CrossDomain = true
	d = Evaluate(Request{Report: r})
	assert.True(t, d.Blocked, "report flag counts as cross-domain")
	assert.True(t, d.CrossDomain)

	d = Evaluate(Request{Report: report(0.95), CrossDomain: true})
	assert.True(t, d.Allowed)

	d = New(WithCrossDomainCoverage(0.8)).Evaluate(Request{Report: report(0.9), CrossDomain: true})
	assert.True(t, d.Allowed)
}

func TestEvaluate_Clear(t *testing.T) {
	d := Evaluate(Request{Report: report(0.5, atom("m", ir.SeverityMedium))})

	assert.True(t, d.Allowed)
	assert.False(t, d.OverrideUsed)
	assert.Equal(t, ir.ReasonClear, d.Reason)
	assert.Equal(t, 0.5, d.AlignmentCoverage)
	assert.Equal(t, "test report", d.Detail)
}

func TestPromotionMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	severities := []ir.Severity{ir.SeverityLow, ir.SeverityMedium, ir.SeverityHigh}

	properties.Property("adding high-severity atoms never unblocks", prop.ForAll(
		func(base []int, extra int, withOverride, frozen, cross bool, coverage float64) bool {
			var atoms []ir.DisagreementAtom
			for i, s := range base {
				atoms = append(atoms, atom(fmt.Sprintf("a%d", i), severities[s]))
			}
			req := Request{
				Report:      report(coverage, atoms...),
				CrossDomain: cross,
				Integrity:   ir.IntegrityStatus{FreezePromotion: frozen},
			}
			if withOverride {
				req.Override = override()
			}
			before := Evaluate(req)

			for i := 0; i < extra; i++ {
				req.Report.Atoms = append(req.Report.Atoms, atom(fmt.Sprintf("h%d", i), ir.SeverityHigh))
			}
			after := Evaluate(req)

			return before.Allowed || !after.Allowed
		},
		gen.SliceOf(gen.IntRange(0, 2)),
		gen.IntRange(1, 5),
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
		gen.Float64Range(0, 1),
	))

	properties.Property("allowed and blocked are exclusive", prop.ForAll(
		func(highs int, withOverride, frozen bool) bool {
			var atoms []ir.DisagreementAtom
			for i := 0; i < highs; i++ {
				atoms = append(atoms, atom(fmt.Sprintf("h%d", i), ir.SeverityHigh))
			}
			req := Request{Report: report(1, atoms...), Integrity: ir.IntegrityStatus{FreezePromotion: frozen}}
			if withOverride {
				req.Override = override()
			}
			d := Evaluate(req)
			return d.Allowed != d.Blocked
		},
		gen.IntRange(0, 5),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
