// Package session resolves caller claims into a verified member context.
//
// The registry is a SQLite table mapping member IDs to their permanent
// ledger thread, tier, and role. Resolution is the only way to obtain a
// Context, and a Context is the only way to reach tier-scoped reads.
//
// # Critical Patterns
//
// CP-1: Identity Before Access
//   - Every read path starts from Resolve; unresolved claims are a typed
//     UNRESOLVED_IDENTITY error, never a silent default.
//
// CP-2: Capability, Not Claim
//   - Admin access is granted by ReverifyAdmin, which checks the role
//     stored in the registry at call time. The role field arriving in
//     claims is ignored.
//
// CP-3: Permanent Threads
//   - A member's thread_id is assigned at enrollment and never rewritten.
//     Tier changes update the row in place; the ledger partition stays.
package session
