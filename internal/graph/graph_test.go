package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causalcore/internal/ir"
)

func node(name string) ir.NodeSpec {
	return ir.NodeSpec{Name: name, Kind: ir.KindObservable}
}

func edge(from, to string) ir.EdgeSpec {
	return ir.EdgeSpec{From: from, To: to, Sign: ir.SignPositive, Mechanism: from + " drives " + to}
}

func confounderTriangle() ir.DAGSpec {
	return ir.DAGSpec{
		Nodes: []ir.NodeSpec{node("Confounder"), node("Treatment"), node("Outcome")},
		Edges: []ir.EdgeSpec{
			edge("Confounder", "Treatment"),
			edge("Confounder", "Outcome"),
			edge("Treatment", "Outcome"),
		},
	}
}

func TestHydrate(t *testing.T) {
	g, err := Hydrate(confounderTriangle())
	require.NoError(t, err)

	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []string{"Confounder", "Treatment", "Outcome"}, g.Nodes())
	assert.Equal(t, []string{"Confounder", "Treatment"}, g.Parents("Outcome"))
	assert.Equal(t, []string{"Treatment", "Outcome"}, g.Children("Confounder"))
	assert.True(t, g.HasEdge("Treatment", "Outcome"))
	assert.False(t, g.HasEdge("Outcome", "Treatment"))
	assert.Equal(t, []string{"Confounder"}, g.Sources())
}

func TestHydrateMalformed(t *testing.T) {
	tests := []struct {
		name    string
		spec    ir.DAGSpec
		message string
	}{
		{
			name:    "duplicate node",
			spec:    ir.DAGSpec{Nodes: []ir.NodeSpec{node("A"), node("A")}},
			message: "duplicate node",
		},
		{
			name:    "blank node",
			spec:    ir.DAGSpec{Nodes: []ir.NodeSpec{node(" ")}},
			message: "blank name",
		},
		{
			name:    "invalid kind",
			spec:    ir.DAGSpec{Nodes: []ir.NodeSpec{{Name: "A", Kind: "hidden"}}},
			message: "invalid kind",
		},
		{
			name:    "dangling edge",
			spec:    ir.DAGSpec{Nodes: []ir.NodeSpec{node("A")}, Edges: []ir.EdgeSpec{edge("A", "B")}},
			message: "unknown node",
		},
		{
			name:    "self loop",
			spec:    ir.DAGSpec{Nodes: []ir.NodeSpec{node("A")}, Edges: []ir.EdgeSpec{edge("A", "A")}},
			message: "self-loop",
		},
		{
			name: "invalid sign",
			spec: ir.DAGSpec{
				Nodes: []ir.NodeSpec{node("A"), node("B")},
				Edges: []ir.EdgeSpec{{From: "A", To: "B", Sign: "sideways"}},
			},
			message: "invalid sign",
		},
		{
			name: "duplicate edge",
			spec: ir.DAGSpec{
				Nodes: []ir.NodeSpec{node("A"), node("B")},
				Edges: []ir.EdgeSpec{edge("A", "B"), edge("A", "B")},
			},
			message: "duplicate edge",
		},
		{
			name: "cycle",
			spec: ir.DAGSpec{
				Nodes: []ir.NodeSpec{node("A"), node("B"), node("C")},
				Edges: []ir.EdgeSpec{edge("A", "B"), edge("B", "C"), edge("C", "A")},
			},
			message: "cycle detected: A -> B -> C -> A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Hydrate(tt.spec)
			require.Error(t, err)
			assert.True(t, ir.IsMalformedGraph(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestHydrateParallelEdgesDifferingInSign(t *testing.T) {
	spec := ir.DAGSpec{
		Nodes: []ir.NodeSpec{node("A"), node("B")},
		Edges: []ir.EdgeSpec{
			{From: "A", To: "B", Sign: ir.SignPositive},
			{From: "A", To: "B", Sign: ir.SignNegative},
		},
	}

	g, err := Hydrate(spec)
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())
	assert.Len(t, g.EdgesBetween("A", "B"), 2)
	assert.Equal(t, []string{"B"}, g.Children("A"), "children are distinct")
}

func TestHydrateTooLarge(t *testing.T) {
	spec := ir.DAGSpec{Nodes: []ir.NodeSpec{node("A"), node("B"), node("C")}}

	_, err := Hydrate(spec, WithLimits(Limits{MaxNodes: 2}))
	require.Error(t, err)
	assert.Equal(t, ir.ErrCodeGraphTooLarge, ir.CodeOf(err))
}

func TestAncestorsOf(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	anc, err := g.AncestorsOf("Outcome")
	require.NoError(t, err)
	assert.Equal(t, []string{"Confounder", "Treatment"}, anc)

	anc, err = g.AncestorsOf("Confounder")
	require.NoError(t, err)
	assert.Empty(t, anc)

	_, err = g.AncestorsOf("Missing")
	require.Error(t, err)
	assert.True(t, ir.IsInvalidClaim(err))
}

func TestAncestorsAvoiding(t *testing.T) {
	// Upstream -> Treatment -> Outcome, Confounder -> {Treatment, Outcome}
	spec := confounderTriangle()
	spec.Nodes = append(spec.Nodes, node("Upstream"))
	spec.Edges = append(spec.Edges, edge("Upstream", "Treatment"))
	g := MustHydrate(spec)

	anc, err := g.AncestorsAvoiding("Outcome", "Treatment")
	require.NoError(t, err)
	assert.Equal(t, []string{"Confounder"}, anc, "Upstream only reaches Outcome through Treatment")
}

func TestDescendantsOf(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	desc, err := g.DescendantsOf("Confounder")
	require.NoError(t, err)
	assert.Equal(t, []string{"Treatment", "Outcome"}, desc)
}

func TestTopoOrderDeterministic(t *testing.T) {
	spec := ir.DAGSpec{
		Nodes: []ir.NodeSpec{node("C"), node("B"), node("A")},
		Edges: []ir.EdgeSpec{edge("A", "C"), edge("B", "C")},
	}
	g := MustHydrate(spec)

	assert.Equal(t, []string{"B", "A", "C"}, g.TopoOrder())
}

func TestDistances(t *testing.T) {
	spec := ir.DAGSpec{
		Nodes: []ir.NodeSpec{node("A"), node("B"), node("C")},
		Edges: []ir.EdgeSpec{edge("A", "B"), edge("B", "C"), edge("A", "C")},
	}
	g := MustHydrate(spec)

	d := g.Distances("C")
	assert.Equal(t, 0, d["C"])
	assert.Equal(t, 1, d["B"])
	assert.Equal(t, 1, d["A"], "shortest path wins")
}
