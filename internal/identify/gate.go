package identify

import (
	"github.com/roach88/causalcore/internal/graph"
	"github.com/roach88/causalcore/internal/ir"
)

// GateDecision wraps an identifiability result with the strongest output
// class the claim may be reported under.
type GateDecision struct {
	Result
	AllowedOutputClass ir.OutputClass `json:"allowed_output_class"`
}

// EvaluateGate runs Check and downgrades the output class:
//   - no accepted controls: association_only
//   - identifiable: intervention_supported
//   - otherwise: intervention_inferred
//
// On error the decision is association_only, never stronger.
func EvaluateGate(g *graph.Graph, claim Claim) (GateDecision, error) {
	result, err := Check(g, claim)
	if err != nil {
		return GateDecision{Result: result, AllowedOutputClass: ir.ClassAssociationOnly}, err
	}
	return GateDecision{Result: result, AllowedOutputClass: Classify(result)}, nil
}

// Classify maps a result to its allowed output class. Rejected confounders,
// unknown adjustment variables and descendants of the treatment do not
// count as controls.
func Classify(result Result) ir.OutputClass {
	switch {
	case len(result.Controls) == 0:
		return ir.ClassAssociationOnly
	case result.Identifiable:
		return ir.ClassInterventionSupported
	default:
		return ir.ClassInterventionInferred
	}
}
