// Package store provides SQLite-backed persistence for block documents.
//
// Each named document has an append-only list of revisions. A revision
// stores the canonical JSON body of one document snapshot together with its
// content hash, so loading can verify the body was not altered.
//
// # Conventions
//
//   - Revisions are numbered by a per-document logical seq starting at 1,
//     never by timestamps
//   - Listing queries order by seq ASC
//   - Saving a body identical to the head revision is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
