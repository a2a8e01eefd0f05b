package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/causalcore/internal/ir"
)

func TestChain(t *testing.T) {
	spec := Chain("A", "B", "C")

	assert.Len(t, spec.Nodes, 3)
	assert.Equal(t, []ir.EdgeSpec{Edge("A", "B"), Edge("B", "C")}, spec.Edges)
}

func TestConfounderTriangle(t *testing.T) {
	spec := ConfounderTriangle()

	assert.Len(t, spec.Edges, 3)
	assert.Equal(t, []string{"Confounder"}, spec.Confounders)
}

func TestSignedEdge(t *testing.T) {
	e := SignedEdge("A", "B", ir.SignNegative)
	assert.Equal(t, ir.SignNegative, e.Sign)
	assert.NotEmpty(t, e.Mechanism)
}
