// Package ledger provides durable append-only storage for per-thread memory
// event logs.
//
// Each thread owns one partition: a line-delimited JSON file at
// <dir>/threads/<thread_id>.jsonl. Records are self-describing and written
// with a single append syscall followed by a flush, so a crash after a
// successful write never corrupts prior records. A torn trailing line is
// skipped on read.
//
// # Critical Patterns
//
// CP-1: Append-Only Order
//   - Event order is append order; events are never reordered or mutated
//   - Reads always return ascending chronological (file) order
//
// CP-2: Per-Thread Write Serialization
//   - Exactly one writer proceeds per partition at a time (threadGuard)
//   - Appends to different threads proceed fully in parallel
//
// CP-3: Read-Side Truncation Only
//   - Depth limits are applied by callers at read time; the store itself
//     never discards history except via the explicit privileged Purge
//
// # Durability
//
//   - O_APPEND + one Write call per record (atomic at the line level)
//   - Optional fsync per append (SyncWrites) for power-loss durability
//   - Per-thread stats index maintained incrementally, seeded by one scan
package ledger
