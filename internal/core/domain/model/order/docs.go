// Package order provides the Order aggregate root of the lifecycle domain.
//
// The package includes:
//   - Order: identity, line items, total, current status, version and history
//   - Status: the seven lifecycle states and the authoritative transition table
//   - LineItem: an ordered item id with its quantity
//   - TransitionRecord: one immutable history entry (creation, commit or rollback)
//   - Snapshot: a read-only copy of an Order handed out to callers and adapters
//
// Key business rules:
//   - Every order starts in Pending with version 1 and one creation record
//   - Only edges of the transition table may be committed
//   - Cancelled, Failed and Refunded are terminal
//   - The history is append-only and len(history) always equals the version
//   - Each record starts from the state the record before it ended in
//   - A rejected transition appends a rollback record that keeps the previous status
//
// Order itself performs no locking and runs no side effects. Coordination of hooks,
// rollbacks and events lives in the services package.
package order
