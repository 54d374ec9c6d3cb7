// Package query builds tier-bounded and derived views over the ledger.
//
// All reads resolve the caller's tier against the policy table at query
// time, then truncate to the most recent effective-limit events. Derived
// analytics (cross-source summary, emotion trajectory, relational context)
// are computed on demand from the inspected window; nothing is precomputed
// or cached between requests.
//
// Feature-gated views return explicit disabled/no-data results rather than
// errors, so calling surfaces can always distinguish "feature off" and
// "no memory yet" from "storage failed". Store failures propagate unchanged.
package query
