// Package store provides SQLite-backed storage for closed search runs.
//
// A run is stored as four tables:
//   - runs: one row per search, with its options and counts
//   - results: the soluble and solid records, in result order
//   - discovered: the defining reactions of discovered components
//   - warnings: the confirmations raised and how they were answered
//
// # Ordering
//
// Runs are ordered by a logical sequence number assigned on save, never by
// timestamps. All list queries ORDER BY seq or position, so two reads of
// the same store return identical results.
//
// # Identity
//
// Every result row carries the content hash of its record (ir.RecordHash)
// and every run the hash of its ordered record hashes (ir.ResultHash).
// VerifyRun recomputes both to detect a store edited behind our back.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
