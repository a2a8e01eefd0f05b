package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/causalcore/internal/ir"
)

func TestPathsBetween(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	var paths [][]string
	for p := range g.PathsBetween("Confounder", "Outcome") {
		paths = append(paths, p)
	}

	assert.Equal(t, [][]string{
		{"Confounder", "Treatment", "Outcome"},
		{"Confounder", "Outcome"},
	}, paths)
}

func TestPathsBetweenNoPath(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	paths, truncated := g.CollectPaths("Outcome", "Confounder")
	assert.Empty(t, paths)
	assert.False(t, truncated)
}

func TestPathsBetweenSameNode(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	paths, _ := g.CollectPaths("Treatment", "Treatment")
	assert.Equal(t, [][]string{{"Treatment"}}, paths)
}

func TestPathsBetweenUnknownNode(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	paths, _ := g.CollectPaths("Nope", "Outcome")
	assert.Empty(t, paths)
}

func TestPathsBetweenEarlyStop(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	count := 0
	for range g.PathsBetween("Confounder", "Outcome") {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

// ladder builds n rungs where every rung doubles the number of paths.
func ladder(n int) ir.DAGSpec {
	spec := ir.DAGSpec{Nodes: []ir.NodeSpec{node("n0")}}
	for i := 1; i <= n; i++ {
		up := fmt.Sprintf("u%d", i)
		down := fmt.Sprintf("d%d", i)
		next := fmt.Sprintf("n%d", i)
		prev := fmt.Sprintf("n%d", i-1)
		spec.Nodes = append(spec.Nodes, node(up), node(down), node(next))
		spec.Edges = append(spec.Edges,
			edge(prev, up), edge(prev, down), edge(up, next), edge(down, next))
	}
	return spec
}

func TestCollectPathsTruncates(t *testing.T) {
	g := MustHydrate(ladder(6), WithLimits(Limits{MaxPaths: 10}))

	paths, truncated := g.CollectPaths("n0", "n6")
	assert.True(t, truncated)
	assert.Len(t, paths, 10)
}

func TestCollectPathsExactBudget(t *testing.T) {
	g := MustHydrate(ladder(3), WithLimits(Limits{MaxPaths: 8}))

	paths, truncated := g.CollectPaths("n0", "n3")
	assert.False(t, truncated)
	assert.Len(t, paths, 8)
}

func TestCountPathsThrough(t *testing.T) {
	g := MustHydrate(confounderTriangle())

	through, total, truncated := g.CountPathsThrough([]string{"Confounder"}, "Outcome")
	assert.False(t, truncated)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, through["Confounder"])
	assert.Equal(t, 1, through["Treatment"])
	assert.Equal(t, 2, through["Outcome"])
}
