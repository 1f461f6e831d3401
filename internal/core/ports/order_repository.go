package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
// Orders are written from snapshots handed out by the state machine and read
// back as rehydrated aggregates.
type OrderRepository interface {
	// Add persists a new order together with its line items and history.
	// The order must not already exist in the repository.
	Add(ctx context.Context, snapshot order.Snapshot) error

	// Update persists the state of an existing order. The stored version must equal
	// expectedVersion, otherwise *errs.VersionConflictError is returned and nothing is
	// written. History records are append-only: only records past expectedVersion are inserted.
	Update(ctx context.Context, snapshot order.Snapshot, expectedVersion int64) error

	// Get retrieves an order aggregate by its unique identifier.
	// Returns *errs.ObjectNotFoundError if no order exists.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListPendingCreatedBefore returns at most limit Pending orders created before cutoff,
	// oldest first. Used by the pending order expiry job.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*order.Order, error)
}
