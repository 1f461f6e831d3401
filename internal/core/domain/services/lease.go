package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
)

// ErrLeaseNotHeld is returned when a transition is requested with a lease that was
// released or belongs to another order.
var ErrLeaseNotHeld = errors.New("transition lease is not held for this order")

// Lease is a held transition lock of one order. It lets a caller keep the order
// locked across loading, transitioning and persisting it.
//
// Example:
//
//	lease, err := lifecycle.Acquire(ctx, orderID)
//	if err != nil {
//	    return err // *errs.ConcurrentTransitionError when another transition is in flight
//	}
//	defer lease.Release(context.WithoutCancel(ctx))
type Lease struct {
	orderID kernel.UUID
	token   string
	locker  ports.TransitionLocker
	logger  *slog.Logger

	mu       sync.Mutex
	released bool
}

// OrderID returns the order the lease locks.
func (l *Lease) OrderID() kernel.UUID {
	return l.orderID
}

// Release gives the lock back. Only the first call has an effect; failures are logged.
func (l *Lease) Release(ctx context.Context) {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.mu.Unlock()

	if err := l.locker.Release(ctx, l.orderID.String(), l.token); err != nil {
		l.logger.ErrorContext(ctx, "Failed to release transition lock",
			"order_id", l.orderID.String(),
			"error", err,
		)
	}
}

func (l *Lease) holds(orderID kernel.UUID) bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.released && l.orderID.IsEqual(orderID)
}
