package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testdataSpec(name string) string {
	return filepath.Join("testdata", "specs", name)
}

func triangleScenario(flow ...FlowStep) *Scenario {
	return &Scenario{
		Name:        "inline",
		Description: "inline scenario",
		Specs:       []string{testdataSpec("triangle.yaml"), testdataSpec("chain.yaml")},
		Flow:        flow,
	}
}

func TestRun_ExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Outputs, len(scenario.Flow))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "promotion_override.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Outputs, second.Outputs)
}

func TestRun_FreshDatabasePerRun(t *testing.T) {
	promote := FlowStep{
		Op: OpPromote, Model: "Triangle", Candidate: "v2", Outcome: "Outcome",
		Override: &OverrideStep{Actor: "reviewer", Rationale: "reviewed by the modelling panel"},
	}
	scenario := triangleScenario(promote)
	scenario.Assertions = []Assertion{{Type: AssertRowCount, Table: "promotion_audits", Count: 1}}

	for range 2 {
		result, err := Run(scenario)
		require.NoError(t, err)
		assert.True(t, result.Pass, "errors: %v", result.Errors)
		assert.Equal(t, "scenario-0001", result.Trace[0].ID)
	}
}

func TestRun_ExpectErrorMismatch(t *testing.T) {
	result, err := Run(triangleScenario(
		FlowStep{Op: OpCheck, Model: "Triangle", Treatment: "Dose", Outcome: "Outcome",
			Expect: &ExpectClause{Error: "NOT_FOUND"}},
	))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected error NOT_FOUND, got INVALID_CLAIM")
	assert.Equal(t, "INVALID_CLAIM", result.Trace[0].Error)
	assert.Nil(t, result.Outputs[0])
}

func TestRun_UnexpectedError(t *testing.T) {
	result, err := Run(triangleScenario(
		FlowStep{Op: OpAutopsy, Model: "Triangle", Version: "v9", Outcome: "Outcome"},
	))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "unexpected error")
	assert.Equal(t, "NOT_FOUND", result.Trace[0].Error)
}

func TestRun_ExpectedErrorButSuccess(t *testing.T) {
	result, err := Run(triangleScenario(
		FlowStep{Op: OpCheck, Model: "Triangle", Treatment: "Treatment", Outcome: "Outcome",
			Expect: &ExpectClause{Error: "INVALID_CLAIM"}},
	))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error INVALID_CLAIM, got success")
}

func TestRun_ResultMismatch(t *testing.T) {
	result, err := Run(triangleScenario(
		FlowStep{Op: OpCheck, Model: "Triangle", Treatment: "Treatment", Outcome: "Outcome",
			AdjustmentSet: []string{"Confounder"},
			Expect:        &ExpectClause{Result: map[string]any{"identifiable": false}}},
	))
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "result mismatch")
}

func TestRun_AssertionFailuresAreReported(t *testing.T) {
	scenario := triangleScenario(
		FlowStep{Op: OpCompare, Model: "Triangle", Version: "v1", Right: "Triangle", RightVersion: "v2", Outcome: "Outcome"},
	)
	scenario.Assertions = []Assertion{
		{Type: AssertCurrentVersion, Model: "Triangle", Version: "v2"},
		{Type: AssertTraceCount, Op: OpCompare, Count: 1},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Triangle@v1 current")
}

func TestRun_SetupErrors(t *testing.T) {
	t.Run("missing spec", func(t *testing.T) {
		_, err := Run(&Scenario{Name: "n", Specs: []string{testdataSpec("nope.yaml")}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load specs")
	})

	t.Run("invalid spec", func(t *testing.T) {
		_, err := Run(&Scenario{Name: "n", Specs: []string{filepath.Join("..", "compiler", "testdata", "invalid", "cycle.yaml")}})
		require.Error(t, err)
	})

	t.Run("missing aliases", func(t *testing.T) {
		scenario := triangleScenario()
		scenario.Aliases = filepath.Join("testdata", "nope.yaml")
		_, err := Run(scenario)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load aliases")
	})
}

func TestRun_IntegritySeedFreezesPromotion(t *testing.T) {
	scenario := triangleScenario(FlowStep{
		Op: OpPromote, Model: "Triangle", Candidate: "v2", Outcome: "Outcome",
		Expect: &ExpectClause{Result: map[string]any{
			"decision": map[string]any{"integrity_frozen": true},
		}},
	})
	scenario.Integrity = []CheckStep{{Name: "audit-log", Passing: false, Blocking: true}}
	scenario.Assertions = []Assertion{{Type: AssertCurrentVersion, Model: "Triangle", Version: "v1"}}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.True(t, strings.HasPrefix(result.Trace[0].Outcome, "integrity_frozen"))
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}

func TestResult_AddStepNumbersFromOne(t *testing.T) {
	r := NewResult()
	r.AddStep(TraceEvent{Op: OpCheck}, nil)
	r.AddStep(TraceEvent{Op: OpTrace, Step: 99}, map[string]any{})

	assert.Equal(t, 1, r.Trace[0].Step)
	assert.Equal(t, 2, r.Trace[1].Step)
	assert.Len(t, r.Outputs, 2)
}
