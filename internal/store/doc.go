// Package store provides SQLite-backed storage for the mc1 patch library.
//
// The store is append-only and holds:
//   - Graphs: every compiled graph, keyed by its content-addressed ID, with
//     the wire bytes exactly as sent
//   - Controls: each graph's parameter directory, which the wire format
//     does not carry
//   - Sends: every datagram sent to an engine, per session
//
// # Ordering
//
// All ordering uses the logical seq column, never timestamps. Queries
// order by seq, then id in binary collation where ids can tie.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Recording the same graph twice keeps
// the first record; replaying a session's sends does not duplicate them.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5 seconds on lock contention
//   - foreign_keys=ON: Sends and controls must reference recorded graphs
package store
