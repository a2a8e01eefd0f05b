// Package graph implements the in-memory causal graph model.
//
// A Graph is hydrated once from an ir.DAGSpec into indexed forward and
// reverse adjacency. After hydration it is read-only and safe to share
// between goroutines; every entry point of the core (identifiability,
// counterfactual tracing, disagreement, autopsy) reads from the same
// representation.
//
// # Validation
//
// Hydrate rejects, with an ir.ErrCodeMalformedGraph error:
//   - blank or duplicate node names, unknown node kinds
//   - edges referencing unknown nodes, self-loops, unknown signs
//   - exact duplicate edges (parallel edges must differ in sign or metadata)
//   - cycles (a witness cycle path is attached to the error)
//
// Graphs over Limits.MaxNodes fail with ir.ErrCodeGraphTooLarge.
//
// # Path enumeration
//
// Simple-path enumeration is worst-case exponential in branching factor.
// PathsBetween is lazy and CollectPaths stops at Limits.MaxPaths, reporting
// truncation to the caller instead of running unbounded.
package graph
