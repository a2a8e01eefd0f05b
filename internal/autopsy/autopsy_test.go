package autopsy

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/testutil"
)

func TestRun_LinearChain(t *testing.T) {
	g := graph.MustHydrate(testutil.Chain("A", "B", "C").DAGSpec)

	report, err := Run(g, ir.FailureEvent{Outcome: "C", Symptoms: []string{"C spiked"}}, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, report.RootCauses, "closer cut vertex ranks first")
	assert.Equal(t, []ir.NecessityScore{{Factor: "B", Score: 1}, {Factor: "A", Score: 1}}, report.NecessityScores)
	assert.Equal(t, []string{"intervene: B", "monitor: A"}, report.PreventionPlan)
	assert.Equal(t, []string{"C spiked"}, report.Symptoms)
	assert.False(t, report.Truncated)
	assert.Empty(t, report.ID)
}

func TestRun_Diamond(t *testing.T) {
	spec := ir.DAGSpec{
		Nodes: []ir.NodeSpec{testutil.Node("S"), testutil.Node("L"), testutil.Node("R"), testutil.Node("O")},
		Edges: []ir.EdgeSpec{
			testutil.Edge("S", "L"), testutil.Edge("S", "R"),
			testutil.Edge("L", "O"), testutil.Edge("R", "O"),
		},
	}
	g := graph.MustHydrate(spec)

	report, err := Run(g, ir.FailureEvent{Outcome: "O"}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"S", "L", "R"}, report.RootCauses)
	assert.Equal(t, []string{"intervene: S", "validate: L", "monitor: R"}, report.PreventionPlan)
	assert.Equal(t, 0.5, report.NecessityScores[1].Score)

	report, err = Run(g, ir.FailureEvent{Outcome: "O"}, nil, Options{Threshold: 0.6})
	require.NoError(t, err)
	assert.Equal(t, []string{"S"}, report.RootCauses)
	assert.Equal(t, []string{"intervene: S"}, report.PreventionPlan)
	assert.Len(t, report.NecessityScores, 3, "scores below the threshold are still reported")
}

func TestRun_ExogenousSources(t *testing.T) {
	u := testutil.Node("U")
	u.Kind = ir.KindExogenous
	spec := ir.DAGSpec{
		Nodes: []ir.NodeSpec{u, testutil.Node("W"), testutil.Node("X"), testutil.Node("O")},
		Edges: []ir.EdgeSpec{testutil.Edge("U", "X"), testutil.Edge("X", "O"), testutil.Edge("W", "O")},
	}
	g := graph.MustHydrate(spec)

	report, err := Run(g, ir.FailureEvent{Outcome: "O"}, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "U"}, report.RootCauses)
	for _, s := range report.NecessityScores {
		assert.NotEqual(t, "W", s.Factor, "W is not downstream of an exogenous source")
	}
}

func TestRun_FailedAssumptions(t *testing.T) {
	spec := testutil.ConfounderTriangle()
	spec.Assumptions = append(spec.Assumptions,
		ir.Assumption{ID: "dosing", Text: "Treatment dosing is consistent across sites"},
		ir.Assumption{ID: "unrelated", Text: "Outcome is measured weekly", Variables: []string{"Outcome"}},
		ir.Assumption{ID: "substring", Text: "Treatments vary by region"},
	)
	g := graph.MustHydrate(spec.DAGSpec)

	report, err := Run(g, ir.FailureEvent{Outcome: "Outcome"}, spec.Assumptions, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Confounder", "Treatment"}, report.RootCauses)
	ids := make([]string, 0, len(report.FailedAssumptions))
	for _, a := range report.FailedAssumptions {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"no-hidden-confounding", "dosing"}, ids)
}

func TestRun_NoAncestors(t *testing.T) {
	g := graph.MustHydrate(testutil.Chain("A", "B").DAGSpec)

	report, err := Run(g, ir.FailureEvent{Outcome: "A"}, testutil.ConfounderTriangle().Assumptions, Options{})
	require.NoError(t, err)
	assert.Empty(t, report.RootCauses)
	assert.NotNil(t, report.RootCauses)
	assert.Empty(t, report.PreventionPlan)
	assert.Empty(t, report.FailedAssumptions)
	assert.NotNil(t, report.Symptoms)
}

func TestRun_Truncated(t *testing.T) {
	spec := ir.DAGSpec{Nodes: []ir.NodeSpec{testutil.Node("n0")}}
	for i := 1; i <= 5; i++ {
		prev, next := fmt.Sprintf("n%d", i-1), fmt.Sprintf("n%d", i)
		up, down := fmt.Sprintf("u%d", i), fmt.Sprintf("d%d", i)
		spec.Nodes = append(spec.Nodes, testutil.Node(up), testutil.Node(down), testutil.Node(next))
		spec.Edges = append(spec.Edges,
			testutil.Edge(prev, up), testutil.Edge(prev, down),
			testutil.Edge(up, next), testutil.Edge(down, next))
	}
	g := graph.MustHydrate(spec, graph.WithLimits(graph.Limits{MaxPaths: 4}))

	report, err := Run(g, ir.FailureEvent{Outcome: "n5"}, nil, Options{})
	require.NoError(t, err)
	assert.True(t, report.Truncated)
	assert.Contains(t, report.RootCauses, "n0")
}

func TestRun_InvalidEvent(t *testing.T) {
	g := graph.MustHydrate(testutil.Chain("A", "B").DAGSpec)

	_, err := Run(g, ir.FailureEvent{}, nil, Options{})
	assert.True(t, ir.IsInvalidClaim(err))

	_, err = Run(g, ir.FailureEvent{Outcome: "Z"}, nil, Options{})
	assert.True(t, ir.IsInvalidClaim(err))
	assert.Contains(t, err.Error(), `"Z"`)
}

func TestPreventionPlan(t *testing.T) {
	assert.Empty(t, PreventionPlan(nil))
	assert.Equal(t, []string{"intervene: A"}, PreventionPlan([]string{"A"}))
	assert.Equal(t,
		[]string{"intervene: A", "validate: B", "validate: C", "monitor: D"},
		PreventionPlan([]string{"A", "B", "C", "D"}))
}

func TestAutopsyProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("scores are shares and root causes are ancestors", prop.ForAll(
		func(n int, pairs []int) bool {
			spec := ir.DAGSpec{}
			for i := 0; i < n; i++ {
				spec.Nodes = append(spec.Nodes, testutil.Node(fmt.Sprintf("v%d", i)))
			}
			seen := map[[2]int]bool{}
			for i := 0; i+1 < len(pairs); i += 2 {
				a, b := pairs[i]%n, pairs[i+1]%n
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				if seen[[2]int{a, b}] {
					continue
				}
				seen[[2]int{a, b}] = true
				spec.Edges = append(spec.Edges, testutil.Edge(fmt.Sprintf("v%d", a), fmt.Sprintf("v%d", b)))
			}
			g, err := graph.Hydrate(spec)
			if err != nil {
				return false
			}
			outcome := fmt.Sprintf("v%d", n-1)
			report, err := Run(g, ir.FailureEvent{Outcome: outcome}, nil, Options{})
			if err != nil {
				return false
			}
			ancestors, _ := g.AncestorsOf(outcome)
			isAncestor := map[string]bool{}
			for _, a := range ancestors {
				isAncestor[a] = true
			}
			for _, s := range report.NecessityScores {
				if s.Score <= 0 || s.Score > 1 || !isAncestor[s.Factor] {
					return false
				}
			}
			for i := 1; i < len(report.NecessityScores); i++ {
				if report.NecessityScores[i].Score > report.NecessityScores[i-1].Score {
					return false
				}
			}
			return len(report.PreventionPlan) == len(report.RootCauses)
		},
		gen.IntRange(2, 10),
		gen.SliceOf(gen.IntRange(0, 100)),
	))

	properties.TestingRun(t)
}
