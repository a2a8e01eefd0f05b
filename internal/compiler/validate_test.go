package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/testutil"
)

func validDefinition() *ir.ModelDefinition {
	return &ir.ModelDefinition{
		ModelKey: "Triangle",
		Domain:   "test",
		Status:   ir.StatusDraft,
		Version:  "v1",
		Spec:     testutil.ConfounderTriangle(),
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validDefinition()))
}

func TestValidateCardioFixtures(t *testing.T) {
	defs, err := LoadPaths([]string{"testdata/specs"})
	require.NoError(t, err)
	for _, def := range defs {
		assert.Empty(t, Validate(&def))
	}
}

func TestValidateSchema(t *testing.T) {
	def := validDefinition()
	def.Domain = ""
	def.Status = "retired"
	def.Spec.Nodes[0].Kind = "hidden"

	errs := Validate(def)
	require.Len(t, errs, 3, "graph is not hydrated while nodes fail the schema")

	assert.Equal(t, ValidationError{Field: "domain", Message: "field is required", Code: ErrRequiredField}, errs[0])
	assert.Equal(t, "status", errs[1].Field)
	assert.Equal(t, ErrInvalidEnum, errs[1].Code)
	assert.Equal(t, "spec.nodes[0].kind", errs[2].Field)
	assert.Equal(t, ErrInvalidEnum, errs[2].Code)
}

func TestValidateGraph(t *testing.T) {
	def := validDefinition()
	def.Spec.Edges = append(def.Spec.Edges, testutil.Edge("Outcome", "Confounder"))

	errs := Validate(def)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrMalformedGraph, errs[0].Code)
	assert.Equal(t, "spec", errs[0].Field)
	assert.Contains(t, errs[0].Message, "cycle detected")
}

func TestValidateGraphTooLarge(t *testing.T) {
	errs := Validate(validDefinition(), graph.WithLimits(graph.Limits{MaxNodes: 2}))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrGraphTooLarge, errs[0].Code)
	assert.Equal(t, "graph has 3 nodes, limit is 2", errs[0].Message)
}

func TestValidateEmptyGraph(t *testing.T) {
	def := validDefinition()
	def.Spec = ir.ModelSpec{}

	assert.Equal(t, []string{ErrEmptyGraph}, codes(Validate(def)))
}

func TestValidateDeclarations(t *testing.T) {
	def := validDefinition()
	def.Spec.Confounders = []string{"Confounder", "Weather"}
	def.Spec.Assumptions = append(def.Spec.Assumptions,
		ir.Assumption{ID: "no-hidden-confounding", Text: "again", Variables: []string{"Mood"}},
	)

	errs := Validate(def)
	assert.Equal(t, []string{ErrUnknownConfounder, ErrDuplicateAssumption, ErrUnknownAssumptionVariable}, codes(errs))
	assert.Equal(t, "spec.confounders[1]", errs[0].Field)
	assert.Equal(t, "spec.assumptions[1].variables[0]", errs[2].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Field: "domain", Message: "field is required", Code: ErrRequiredField}
	assert.Equal(t, "[E101] domain: field is required", err.Error())
}
