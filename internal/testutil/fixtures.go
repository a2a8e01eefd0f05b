// Package testutil provides graph fixtures and deterministic generators
// shared by package tests.
package testutil

import "github.com/roach88/causalcore/internal/ir"

// Node declares an observable node.
func Node(name string) ir.NodeSpec {
	return ir.NodeSpec{Name: name, Kind: ir.KindObservable}
}

// Edge declares a positive edge with a mechanism, so it counts as fully
// specified for uncertainty purposes.
func Edge(from, to string) ir.EdgeSpec {
	return ir.EdgeSpec{
		From:      from,
		To:        to,
		Sign:      ir.SignPositive,
		Mechanism: from + " drives " + to,
	}
}

// SignedEdge declares an edge with the given sign and a mechanism.
func SignedEdge(from, to string, sign ir.Sign) ir.EdgeSpec {
	e := Edge(from, to)
	e.Sign = sign
	return e
}

// ConfounderTriangle is Confounder -> Treatment, Confounder -> Outcome,
// Treatment -> Outcome.
func ConfounderTriangle() ir.ModelSpec {
	return ir.ModelSpec{
		DAGSpec: ir.DAGSpec{
			Nodes: []ir.NodeSpec{Node("Confounder"), Node("Treatment"), Node("Outcome")},
			Edges: []ir.EdgeSpec{
				Edge("Confounder", "Treatment"),
				Edge("Confounder", "Outcome"),
				Edge("Treatment", "Outcome"),
			},
		},
		Assumptions: []ir.Assumption{
			{
				ID:         "no-hidden-confounding",
				Text:       "Confounder is the only common cause of Treatment and Outcome",
				Variables:  []string{"Confounder"},
				Provenance: ir.ProvenanceAssumption,
			},
		},
		Confounders: []string{"Confounder"},
	}
}

// Chain links the given names in order: a -> b -> c ...
func Chain(names ...string) ir.ModelSpec {
	spec := ir.ModelSpec{DAGSpec: ir.DAGSpec{Nodes: []ir.NodeSpec{}, Edges: []ir.EdgeSpec{}}}
	for i, name := range names {
		spec.Nodes = append(spec.Nodes, Node(name))
		if i > 0 {
			spec.Edges = append(spec.Edges, Edge(names[i-1], name))
		}
	}
	return spec
}
