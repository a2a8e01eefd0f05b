// Package harness runs YAML conformance scenarios against the causal engine.
//
// Each scenario imports model specs into a fresh in-memory SQLite store,
// runs a flow of engine operations and checks the outcome of every step
// and the final store state.
//
// # Scenario Format
//
//	name: promotion_override
//	description: "A sign flip blocks promotion until overridden"
//	specs:
//	  - specs/triangle_v1.yaml
//	  - specs/triangle_v2.yaml
//	aliases: aliases.yaml
//	integrity:
//	  - { name: replication, passing: true, blocking: true }
//	flow:
//	  - op: check
//	    model: Triangle
//	    treatment: Treatment
//	    outcome: Outcome
//	    adjustment_set: [Confounder]
//	    expect:
//	      result: { allowed_output_class: intervention_supported }
//	  - op: promote
//	    model: Triangle
//	    candidate: v2
//	    outcome: Outcome
//	    expect:
//	      result: { decision: { blocked: true } }
//	assertions:
//	  - { type: current_version, model: Triangle, version: v1 }
//	  - { type: row_count, table: promotion_audits, count: 1 }
//
// Flow operations are check, trace, compare, promote, autopsy and
// integrity. An expect clause names either an error code or a subset of
// the step output's JSON fields; a step without one must succeed.
//
// # Assertion Types
//
//   - trace_count: an operation appears exactly N times
//   - trace_order: operations first appear in the given order
//   - current_version: the registry reports the given current version
//   - row_count: a store table holds N rows matching a where clause
//
// # Deterministic Testing
//
// Record IDs come from a sequential generator ("scenario-0001", ...) and
// each run gets its own metrics registry, so the same scenario always
// yields the same trace. Golden snapshots use canonical JSON and live in
// testdata/golden.
package harness
