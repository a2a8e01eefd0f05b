package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causalcore/internal/ir"
)

func testReport(id string) ir.DisagreementReport {
	return ir.DisagreementReport{
		ID:         id,
		Left:       ir.ModelRef{ModelKey: "A", Version: "v1"},
		Right:      ir.ModelRef{ModelKey: "B", Version: "v1"},
		OutcomeVar: "Outcome",
		Score:      0.75,
		Summary:    "1 high, 0 medium, 0 low",
		Atoms: []ir.DisagreementAtom{{
			ID:       "edge_sign:Treatment->Outcome",
			Type:     ir.AtomEdgeSign,
			Severity: ir.SeverityHigh,
		}},
		AlignedVariables: []ir.AlignedVariable{},
		UnknownVariables: []string{},
	}
}

func TestWriteDisagreementReport_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	report := testReport("r1")

	require.NoError(t, s.WriteDisagreementReport(ctx, report))
	require.NoError(t, s.WriteDisagreementReport(ctx, report), "rewriting a report is a no-op")

	got, err := s.ReadDisagreementReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, report, got)

	var score float64
	require.NoError(t, s.db.QueryRow(`SELECT score FROM disagreement_reports WHERE id = 'r1'`).Scan(&score))
	assert.Equal(t, 0.75, score)
}

func TestReadDisagreementReport_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadDisagreementReport(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, ir.IsNotFound(err))
}

func TestWriteCounterfactualTrace_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	trace := ir.CounterfactualTrace{
		TraceID: "t1",
		Model:   ir.ModelRef{ModelKey: "Triangle", Version: "v1"},
		Query: ir.CounterfactualQuery{
			Intervention:  ir.Intervention{Variable: "Treatment", Value: 1},
			Outcome:       "Outcome",
			ObservedWorld: map[string]float64{"Treatment": 0, "Outcome": 2},
		},
		Assumptions:   []ir.Assumption{},
		AdjustmentSet: []string{"Confounder"},
		Computation: ir.CounterfactualComputation{
			Method:        "linear_path_propagation",
			AffectedPaths: [][]string{{"Treatment", "Outcome"}},
			Uncertainty:   ir.UncertaintyLow,
		},
		Result: ir.CounterfactualResult{ActualOutcome: 2, CounterfactualOutcome: 3, Delta: 1},
	}

	require.NoError(t, s.WriteCounterfactualTrace(ctx, trace))

	got, err := s.ReadCounterfactualTrace(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, trace, got)
}

func TestWriteAutopsyReport_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	report := ir.AutopsyReport{
		ID:                "a1",
		Model:             ir.ModelRef{ModelKey: "Chain", Version: "v1"},
		FailureEvent:      ir.FailureEvent{Outcome: "C"},
		RootCauses:        []string{"B", "A"},
		Symptoms:          []string{},
		FailedAssumptions: []ir.Assumption{},
		NecessityScores:   []ir.NecessityScore{{Factor: "B", Score: 1}, {Factor: "A", Score: 1}},
		PreventionPlan:    []string{"intervene: B", "monitor: A"},
	}

	require.NoError(t, s.WriteAutopsyReport(ctx, report))

	got, err := s.ReadAutopsyReport(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, report, got)
}

func TestWritePromotionAudit_OrderedPerModel(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	audits, err := s.ListPromotionAudits(ctx, "Triangle")
	require.NoError(t, err)
	assert.NotNil(t, audits)
	assert.Empty(t, audits)

	blocked := ir.PromotionAudit{
		ModelKey:         "Triangle",
		CurrentVersion:   "v1",
		CandidateVersion: "v2",
		ReportID:         "r1",
		Decision: ir.PromotionDecision{
			Blocked:                true,
			Reason:                 ir.ReasonUnresolvedHighSeverity,
			RequiresManualOverride: true,
			AtomCounts:             map[ir.Severity]int{ir.SeverityHigh: 1, ir.SeverityMedium: 0, ir.SeverityLow: 0},
		},
	}
	allowed := blocked
	allowed.ReportID = "r2"
	allowed.Override = &ir.Override{Actor: "reviewer", Rationale: "accepted after review", Version: "v2"}
	allowed.Decision = ir.PromotionDecision{Allowed: true, Reason: ir.ReasonOverrideAccepted, OverrideUsed: true}
	allowed.Promoted = true

	require.NoError(t, s.WritePromotionAudit(ctx, blocked))
	require.NoError(t, s.WritePromotionAudit(ctx, allowed))
	require.NoError(t, s.WritePromotionAudit(ctx, ir.PromotionAudit{ModelKey: "Other", ReportID: "r3"}))

	audits, err = s.ListPromotionAudits(ctx, "Triangle")
	require.NoError(t, err)
	assert.Equal(t, []ir.PromotionAudit{blocked, allowed}, audits)
}

func TestSinkWrites_FailAsPersistenceFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Close())

	tests := []struct {
		record string
		write  func() error
	}{
		{ir.RecordDisagreementReport, func() error { return s.WriteDisagreementReport(ctx, testReport("r1")) }},
		{ir.RecordCounterfactual, func() error { return s.WriteCounterfactualTrace(ctx, ir.CounterfactualTrace{TraceID: "t1"}) }},
		{ir.RecordAutopsyReport, func() error { return s.WriteAutopsyReport(ctx, ir.AutopsyReport{ID: "a1"}) }},
		{ir.RecordPromotionAudit, func() error { return s.WritePromotionAudit(ctx, ir.PromotionAudit{ModelKey: "M"}) }},
	}
	for _, tt := range tests {
		t.Run(tt.record, func(t *testing.T) {
			err := tt.write()
			require.Error(t, err)
			assert.True(t, ir.IsPersistenceFailure(err), err.Error())

			var e *ir.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.record, e.Details["record"])
		})
	}
}
