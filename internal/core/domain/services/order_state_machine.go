package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// Clock returns the current time. Tests replace it to move time forward.
type Clock func() time.Time

// ErrOrderStateMachineIsNotConstructed is returned when a machine was not created by an OrderLifecycle.
var ErrOrderStateMachineIsNotConstructed = errors.New(
	"OrderStateMachine must be created via OrderLifecycle.Create or OrderLifecycle.Restore",
)

// OrderLifecycleOption configures an OrderLifecycle.
type OrderLifecycleOption func(*OrderLifecycle)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(clock Clock) OrderLifecycleOption {
	return func(l *OrderLifecycle) {
		l.clock = clock
	}
}

// OrderLifecycle wires the lock, the hook pipeline and the event publisher into
// OrderStateMachine instances. It is safe for concurrent use; create one per process.
//
// Example:
//
//	lifecycle, err := services.NewOrderLifecycle(services.NewTransitionLock(), pipeline, publisher, logger)
//	if err != nil {
//	    return err
//	}
//	machine, err := lifecycle.Create(ctx, orderID, userID, items, total)
//	if err != nil {
//	    return err
//	}
//	if err := machine.RequestTransition(ctx, order.Processing, "stock confirmed", nil); err != nil {
//	    return err
//	}
type OrderLifecycle struct {
	locker    ports.TransitionLocker
	pipeline  *HookPipeline
	rollbacks *RollbackCoordinator
	publisher *EventPublisher
	clock     Clock
	logger    *slog.Logger
}

// NewOrderLifecycle creates a lifecycle service. locker, pipeline and publisher are required.
func NewOrderLifecycle(
	locker ports.TransitionLocker,
	pipeline *HookPipeline,
	publisher *EventPublisher,
	logger *slog.Logger,
	opts ...OrderLifecycleOption,
) (*OrderLifecycle, error) {
	var errList []error
	if locker == nil {
		errList = append(errList, errs.NewValueIsRequiredError("transition locker"))
	}
	if pipeline == nil {
		errList = append(errList, errs.NewValueIsRequiredError("hook pipeline"))
	}
	if publisher == nil {
		errList = append(errList, errs.NewValueIsRequiredError("event publisher"))
	}
	if err := errors.Join(errList...); err != nil {
		return nil, err
	}

	l := &OrderLifecycle{
		locker:    locker,
		pipeline:  pipeline,
		publisher: publisher,
		clock:     time.Now,
		logger:    logger.With("component", "order_lifecycle"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.rollbacks = NewRollbackCoordinator(publisher, l.clock, logger)

	return l, nil
}

// Create starts the lifecycle of a new order in Pending.
//
// Returns an invalid-argument error when items are empty, the total is not positive
// or an identifier is missing.
func (l *OrderLifecycle) Create(
	ctx context.Context,
	orderID, userID kernel.UUID,
	items []order.LineItem,
	total kernel.Money,
) (*OrderStateMachine, error) {
	o, err := order.NewOrder(orderID, userID, items, total, l.clock())
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Order created",
		"order_id", orderID.String(),
		"user_id", userID.String(),
		"total", total.String(),
	)
	return l.machine(o), nil
}

// Acquire takes the transition lock of orderID without waiting.
//
// Returns *errs.ConcurrentTransitionError when another transition of the order is
// in flight. The caller must Release the returned lease.
func (l *OrderLifecycle) Acquire(ctx context.Context, orderID kernel.UUID) (*Lease, error) {
	lockKey := orderID.String()

	token, acquired, err := l.locker.TryAcquire(ctx, lockKey)
	if err != nil {
		return nil, fmt.Errorf("acquire transition lock: %w", err)
	}
	if !acquired {
		l.logger.WarnContext(ctx, "Transition rejected, another one is in progress",
			"order_id", lockKey,
		)
		return nil, errs.NewConcurrentTransitionError(lockKey)
	}

	return &Lease{
		orderID: orderID,
		token:   token,
		locker:  l.locker,
		logger:  l.logger,
	}, nil
}

// Restore wraps an order loaded from persistence in a state machine.
func (l *OrderLifecycle) Restore(o *order.Order) (*OrderStateMachine, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return l.machine(o), nil
}

func (l *OrderLifecycle) machine(o *order.Order) *OrderStateMachine {
	return &OrderStateMachine{
		id:        o.ID(),
		order:     o,
		lifecycle: l,
	}
}

// OrderStateMachine owns one order and is the only way to change its status.
//
// Concurrent RequestTransition calls for the same order never both mutate it: the
// loser fails with *errs.ConcurrentTransitionError. Status and History take a read
// lock that is never held while hooks run, so readers do not wait for collaborators.
type OrderStateMachine struct {
	id        kernel.UUID
	mu        sync.RWMutex
	order     *order.Order
	lifecycle *OrderLifecycle
}

// ID returns the identifier of the order.
func (m *OrderStateMachine) ID() kernel.UUID {
	return m.id
}

// Status returns a snapshot of the order.
func (m *OrderStateMachine) Status() order.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.order.Snapshot()
}

// History returns a copy of the transition history, oldest record first.
func (m *OrderStateMachine) History() []order.TransitionRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.order.History()
}

// PersistFunc stores the snapshot produced by a transition or a rollback. It runs while
// the transition lock is held and before any post-hook or event, so side effects only
// follow a stored change.
type PersistFunc func(ctx context.Context, snapshot order.Snapshot) error

// RequestTransition moves the order to `to`. reason and details are stored in the
// history record.
//
// The lock is acquired without waiting and released on every exit path. Once it is
// held, cancellation of ctx no longer interrupts the transition.
//
// Returns:
//   - nil when the transition was committed, even if post-hooks failed
//   - *errs.ConcurrentTransitionError when another transition of the order is in flight
//   - *errs.IllegalTransitionError when the edge is not legal; nothing is recorded
//   - *errs.PreconditionFailedError when a pre-hook rejected the transition; a rollback
//     record was appended and TransitionFailed published
func (m *OrderStateMachine) RequestTransition(
	ctx context.Context,
	to order.Status,
	reason string,
	details map[string]string,
) error {
	if m == nil || m.lifecycle == nil {
		return ErrOrderStateMachineIsNotConstructed
	}

	lease, err := m.lifecycle.Acquire(ctx, m.id)
	if err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	defer lease.Release(ctx)

	return m.transition(ctx, to, reason, details, nil)
}

// RequestTransitionHeld is RequestTransition for a caller that already holds the
// order's lease, typically across loading the order and persisting the result.
// The lease is not released.
//
// persist, when not nil, stores the committed or rolled back snapshot before
// post-hooks run and events are published. When it fails the in-memory order is
// reset, no post-hook runs, no event is published and the persist error is returned
// (joined with the precondition error on the rollback path).
func (m *OrderStateMachine) RequestTransitionHeld(
	ctx context.Context,
	lease *Lease,
	to order.Status,
	reason string,
	details map[string]string,
	persist PersistFunc,
) error {
	if m == nil || m.lifecycle == nil {
		return ErrOrderStateMachineIsNotConstructed
	}
	if !lease.holds(m.id) {
		return ErrLeaseNotHeld
	}

	return m.transition(context.WithoutCancel(ctx), to, reason, details, persist)
}

func (m *OrderStateMachine) transition(
	ctx context.Context,
	to order.Status,
	reason string,
	details map[string]string,
	persist PersistFunc,
) error {
	l := m.lifecycle
	lockKey := m.id.String()

	before := m.Status()
	if err := before.Status.CanTransitionTo(to); err != nil {
		return err
	}

	t := Transition{
		Order:   before,
		From:    before.Status,
		To:      to,
		Reason:  reason,
		Context: maps.Clone(details),
		At:      l.clock(),
	}

	if err := l.pipeline.RunPre(ctx, t); err != nil {
		target := persistingTarget{machine: m, before: before, persist: persist}
		if rollbackErr := l.rollbacks.Rollback(ctx, target, t, err); rollbackErr != nil {
			return errors.Join(err, rollbackErr)
		}
		return err
	}

	after, err := m.commit(t)
	if err != nil {
		return err
	}
	if err = m.store(ctx, persist, before, after); err != nil {
		l.logger.ErrorContext(ctx, "Failed to persist transition",
			"order_id", lockKey,
			"to", t.To.String(),
			"error", err,
		)
		return err
	}
	l.logger.InfoContext(ctx, "Order transitioned",
		"order_id", lockKey,
		"from", t.From.String(),
		"to", t.To.String(),
		"version", after.Version,
	)

	t.Order = after
	l.pipeline.RunPost(ctx, t)

	l.publisher.Publish(ctx, StateChanged{
		OrderID:   m.id,
		From:      t.From,
		To:        t.To,
		Reason:    reason,
		Version:   after.Version,
		Timestamp: t.At,
	})
	return nil
}

func (m *OrderStateMachine) commit(t Transition) (order.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.order.Transition(t.To, t.Reason, t.Context, t.At); err != nil {
		return order.Snapshot{}, err
	}
	return m.order.Snapshot(), nil
}

func (m *OrderStateMachine) recordRollback(
	previous, attempted order.Status,
	details map[string]string,
	cause error,
	at time.Time,
) (order.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.order.RecordRollback(previous, attempted, RollbackReason, details, cause, at); err != nil {
		return order.Snapshot{}, err
	}
	return m.order.Snapshot(), nil
}

// store runs persist outside the read/write mutex; the transition lock keeps other
// writers out meanwhile. A failed persist puts the order back to before.
func (m *OrderStateMachine) store(ctx context.Context, persist PersistFunc, before, after order.Snapshot) error {
	if persist == nil {
		return nil
	}
	if err := persist(ctx, after); err != nil {
		if restored, restoreErr := order.RestoreOrder(before); restoreErr == nil {
			m.mu.Lock()
			m.order = restored
			m.mu.Unlock()
		}
		return fmt.Errorf("persist order %s: %w", m.id, err)
	}
	return nil
}

// persistingTarget records a rollback on the machine and stores it.
type persistingTarget struct {
	machine *OrderStateMachine
	before  order.Snapshot
	persist PersistFunc
}

func (p persistingTarget) recordRollback(
	ctx context.Context,
	previous, attempted order.Status,
	details map[string]string,
	cause error,
	at time.Time,
) (order.Snapshot, error) {
	snapshot, err := p.machine.recordRollback(previous, attempted, details, cause, at)
	if err != nil {
		return order.Snapshot{}, err
	}
	if err = p.machine.store(ctx, p.persist, p.before, snapshot); err != nil {
		return order.Snapshot{}, err
	}
	return snapshot, nil
}
