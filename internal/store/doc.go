// Package store provides the SQLite-backed catalog of compiled queries.
//
// Each `rdflift compile --store` invocation records a run and the query
// text compiled for every mapping. Query rows are content-addressed, so a
// mapping that compiles to the same text in many runs is stored once and
// linked from each run.
//
// # Tables
//
//   - runs: one row per compile run, keyed by a UUIDv7
//   - queries: one row per distinct query text, keyed by QueryID
//   - run_queries: the mapping → query link of each run
//
// # Ordering
//
// All reads are deterministic: runs by seq, links by mapping name using
// COLLATE BINARY. Wall-clock time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
