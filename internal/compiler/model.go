package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/causalcore/internal/ir"
)

// CompileModel parses a CUE value into a ModelDefinition.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the model struct itself, labelled by its key:
//
//	model: Cardio: {
//		domain:  "cardiology"
//		version: "v1"
//		nodes: {
//			Smoking: kind: "exogenous"
//			BloodPressure: kind: "observable"
//		}
//		edges: [{from: "Smoking", to: "BloodPressure", sign: "positive"}]
//	}
//
// Node order follows field order in the source.
func CompileModel(v cue.Value) (*ir.ModelDefinition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	def := &ir.ModelDefinition{}

	// Parse model key from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		def.ModelKey = labels[len(labels)-1].String()
	}

	var err error
	if def.Domain, err = requiredString(v, "domain"); err != nil {
		return nil, err
	}
	if def.Version, err = requiredString(v, "version"); err != nil {
		return nil, err
	}

	statusVal := v.LookupPath(cue.ParsePath("status"))
	if statusVal.Exists() {
		status, err := statusVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		def.Status = ir.ModelStatus(status)
	}

	def.Spec.Nodes, err = parseNodes(v)
	if err != nil {
		return nil, err
	}

	// Edges, assumptions and confounders decode straight into the IR.
	def.Spec.Edges = []ir.EdgeSpec{}
	for _, field := range []struct {
		name   string
		target any
	}{
		{"edges", &def.Spec.Edges},
		{"assumptions", &def.Spec.Assumptions},
		{"confounders", &def.Spec.Confounders},
	} {
		fv := v.LookupPath(cue.ParsePath(field.name))
		if !fv.Exists() {
			continue
		}
		if err := fv.Decode(field.target); err != nil {
			return nil, formatCUEError(err)
		}
	}

	applyDefaults(def)
	return def, nil
}

// parseNodes extracts node declarations keyed by name.
func parseNodes(v cue.Value) ([]ir.NodeSpec, error) {
	nodesVal := v.LookupPath(cue.ParsePath("nodes"))
	if !nodesVal.Exists() {
		return nil, &CompileError{
			Field:   "nodes",
			Message: "nodes are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := nodesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	nodes := []ir.NodeSpec{}
	for iter.Next() {
		name := iter.Label()
		nodeVal := iter.Value()

		if !nodeVal.LookupPath(cue.ParsePath("kind")).Exists() {
			return nil, &CompileError{
				Field:   fmt.Sprintf("nodes.%s.kind", name),
				Message: "node kind is required",
				Pos:     nodeVal.Pos(),
			}
		}

		var node ir.NodeSpec
		if err := nodeVal.Decode(&node); err != nil {
			return nil, formatCUEError(err)
		}
		node.Name = name
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileCUE compiles every model under the top-level "model" struct of a
// CUE source. Compilation stops at the first failing model.
func CompileCUE(src []byte, filename string) ([]ir.ModelDefinition, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	modelsVal := value.LookupPath(cue.ParsePath("model"))
	if !modelsVal.Exists() {
		return nil, &CompileError{Field: "model", Message: "no models found"}
	}

	iter, err := modelsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []ir.ModelDefinition
	for iter.Next() {
		def, err := CompileModel(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("model.%s: %w", iter.Label(), err)
		}
		defs = append(defs, *def)
	}
	return defs, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
