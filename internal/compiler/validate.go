package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
	"github.com/roach88/causalcore/internal/validation"
)

// Validation error codes (E100-E199)
const (
	// Schema errors (E100-E102)
	ErrSchema        = "E100" // other struct constraint
	ErrRequiredField = "E101" // missing required field
	ErrInvalidEnum   = "E102" // kind, sign, status or provenance out of range

	// Graph errors (E103-E104, E108)
	ErrMalformedGraph = "E103" // cycle, dangling edge, duplicate node or edge
	ErrGraphTooLarge  = "E104" // node cap exceeded
	ErrEmptyGraph     = "E108" // no nodes declared

	// Declaration errors (E105-E107)
	ErrUnknownConfounder         = "E105" // confounder is not a node
	ErrUnknownAssumptionVariable = "E106" // assumption references a missing node
	ErrDuplicateAssumption       = "E107" // assumption ID declared twice
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate validates a compiled model definition.
// Returns all errors found (does not fail-fast). The graph is only
// hydrated once its nodes and edges pass the schema checks.
func Validate(def *ir.ModelDefinition, opts ...graph.Option) []ValidationError {
	var errs []ValidationError

	graphSchemaOK := true
	for _, fe := range validation.Fields(def) {
		code := ErrSchema
		switch fe.Tag {
		case "required", "notblank":
			code = ErrRequiredField
		case "oneof":
			code = ErrInvalidEnum
		}
		if strings.HasPrefix(fe.Field, "spec.nodes") || strings.HasPrefix(fe.Field, "spec.edges") {
			graphSchemaOK = false
		}
		errs = append(errs, ValidationError{Field: fe.Field, Message: fe.Message, Code: code})
	}

	spec := def.Spec

	// E108: at least one node
	if len(spec.Nodes) == 0 {
		errs = append(errs, ValidationError{
			Field:   "spec.nodes",
			Message: "at least one node is required",
			Code:    ErrEmptyGraph,
		})
		graphSchemaOK = false
	}

	if graphSchemaOK {
		if _, err := graph.Hydrate(spec.DAGSpec, opts...); err != nil {
			errs = append(errs, graphError(err))
		}
	}

	nodes := make(map[string]bool, len(spec.Nodes))
	for _, n := range spec.Nodes {
		nodes[n.Name] = true
	}

	// E105: confounders must be declared nodes
	for i, c := range spec.Confounders {
		if !nodes[c] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("spec.confounders[%d]", i),
				Message: fmt.Sprintf("confounder %q is not a declared node", c),
				Code:    ErrUnknownConfounder,
			})
		}
	}

	seenIDs := make(map[string]bool)
	for i, a := range spec.Assumptions {
		// E107: duplicate assumption ID
		if a.ID != "" {
			if seenIDs[a.ID] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("spec.assumptions[%d].id", i),
					Message: fmt.Sprintf("duplicate assumption id: %q", a.ID),
					Code:    ErrDuplicateAssumption,
				})
			}
			seenIDs[a.ID] = true
		}

		// E106: assumption variables must be declared nodes
		for j, v := range a.Variables {
			if !nodes[v] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("spec.assumptions[%d].variables[%d]", i, j),
					Message: fmt.Sprintf("variable %q is not a declared node", v),
					Code:    ErrUnknownAssumptionVariable,
				})
			}
		}
	}

	return errs
}

func graphError(err error) ValidationError {
	ve := ValidationError{Field: "spec", Message: err.Error(), Code: ErrMalformedGraph}
	var coreErr *ir.Error
	if errors.As(err, &coreErr) {
		ve.Message = coreErr.Message
		if coreErr.Code == ir.ErrCodeGraphTooLarge {
			ve.Code = ErrGraphTooLarge
		}
	}
	return ve
}
