// Package engine is the service layer of the causal core.
//
// Every entry point follows the same flow:
//  1. Resolve the model version through the Registry
//  2. Hydrate the graph once, under the configured limits
//  3. Run the pure algorithm (identify, counterfactual, disagree,
//     promotion, autopsy)
//  4. Stamp IDs and model references on the result
//  5. Hand the result to the Sink, best effort
//
// COLLABORATORS:
//
// The Registry, Aligner, IntegrityService and Sink are injected by New.
// *store.Store implements Registry, IntegrityService and Sink;
// *align.Table implements the Aligner; Memory implements all three
// service interfaces for scenarios and tests.
//
// PERSISTENCE:
//
// A failed sink write is logged and counted, never returned. The caller
// still receives the computed trace or report. Promotion is the one
// exception on the registry side: if the current-version flip fails,
// Promote returns the error because no promotion happened.
//
// CONCURRENCY:
//
// The engine holds no mutable state after construction and is safe for
// concurrent use. Compare resolves its two sides concurrently.
package engine
