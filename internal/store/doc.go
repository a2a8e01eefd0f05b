// Package store provides SQLite-backed durable storage for the causal core.
//
// One database serves every external collaborator of the engine:
//   - Registry: models and their immutable versions, with the current
//     version flipped atomically
//   - Integrity: scientific integrity checks; a failing blocking check
//     freezes promotion
//   - Sink: disagreement reports, counterfactual traces, autopsy reports
//     and promotion audits
//   - Aliases: the variable alias table behind alignment
//
// # Invariants
//
// Exactly One Current Version
//   - The first imported version of a model becomes current
//   - A partial UNIQUE index allows at most one is_current row per model
//   - SetCurrentVersion clears and sets inside one transaction
//
// Logical Ordering
//   - Log tables carry a seq column assigned on insert
//   - Reads ORDER BY seq ASC, never by wall time
//
// Immutable Versions
//   - Re-importing a version with the same spec hash is a no-op
//   - Re-importing it with different content is rejected
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
