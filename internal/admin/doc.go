// Package admin provides read-only oversight queries over the full ledger.
//
// Every operation takes a session.AdminContext, the capability produced by
// registry re-verification. Admin reads bypass tier depth entirely; they
// never write member data, with one exception: AddObservation appends a
// system event to the member's own ledger, which is itself append-only.
package admin
