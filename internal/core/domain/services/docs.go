// Package services provides the domain services that drive the order lifecycle.
//
// The package includes:
//   - OrderLifecycle: creates and restores OrderStateMachine instances
//   - OrderStateMachine: the single mutation entry point of an order
//   - TransitionLock: in-process per-order exclusion
//   - Lease: a held transition lock that spans loading and persisting an order
//   - HookPipeline: static pre and post transition hook tables
//   - RollbackCoordinator: records rejected transitions and reports them
//   - EventPublisher: synchronous fan-out of StateChanged and TransitionFailed
//
// A transition runs in this order: acquire the lock without waiting, validate the
// edge, run pre-hooks, commit, persist, run post-hooks, publish, release the lock.
// A pre-hook failure replaces the commit with a rollback record, which is persisted
// the same way. A failed persist reverts the order and nothing after it runs.
// Post-hook and subscriber failures are logged and never reach the caller.
//
// Callers that load the order from storage take a Lease with OrderLifecycle.Acquire
// before loading it and hand it to RequestTransitionHeld together with a PersistFunc.
package services
