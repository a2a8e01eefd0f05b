// Package ir provides the shared data model for the causal reasoning core.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the graph, gate and
// engine packages free of circular dependencies.
//
// Key design constraints:
//   - All JSON tags use snake_case
//   - Model specs are content-addressed (SpecHash) using canonical JSON
//   - Reports and traces are values: created once, never mutated
//   - Ordering is logical (seq), never wall-clock
package ir
