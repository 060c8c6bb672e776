// Package store provides the SQLite-backed journal of relay room operations.
//
// The journal is append-only:
//   - Rooms: one row per relay room
//   - Operations: every operation accepted by a room, in arrival order
//
// # Ordering
//
// Operations are ordered by seq, an autoincrement key assigned at insert.
// Arrival order is the only ordering the relay guarantees, so replay uses
// seq and never the client-supplied timestamp.
//
// # Idempotency
//
// Operation ids are unique. Writing the same operation twice is a no-op, so
// a peer that resends after a reconnect does not duplicate journal entries.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
