package commands

import (
	"context"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
)

// TransitionOrderCommandHandler loads an order, runs the requested transition through
// its state machine and persists whatever the attempt appended to the history.
//
// The order's transition lease is taken before the order is loaded and released after
// the transaction ended, so a second request for the same order fails with
// *errs.ConcurrentTransitionError instead of replaying the transition on stale state.
// The new snapshot, a rollback record included, is written and committed before any
// post-hook runs. Nothing is written when the attempt was illegal.
//
// Example:
//
//	handler := NewTransitionOrderCommandHandler(uowFactory, lifecycle)
//	cmd, _ := NewTransitionOrderCommand(orderID, order.Processing, "stock confirmed", nil)
//
//	err := handler.Handle(ctx, cmd)
//	var precondition *errs.PreconditionFailedError
//	if errors.As(err, &precondition) {
//	    log.Printf("hook %s rejected the transition", precondition.Hook)
//	}
type TransitionOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	lifecycle  OrderLifecycle
}

// NewTransitionOrderCommandHandler creates a handler for order transitions.
func NewTransitionOrderCommandHandler(
	uowFactory OrderUoWFactory,
	lifecycle OrderLifecycle,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle processes the transition command within a transaction.
//
// Returns the state machine error unchanged (*errs.IllegalTransitionError,
// *errs.ConcurrentTransitionError, *errs.PreconditionFailedError), a repository error
// such as *errs.ObjectNotFoundError or *errs.VersionConflictError, or nil on success.
func (h *TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	lease, err := h.lifecycle.Acquire(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	defer lease.Release(context.WithoutCancel(ctx))

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	loaded, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}
	loadedVersion := loaded.Version()

	machine, err := h.lifecycle.Restore(loaded)
	if err != nil {
		return err
	}

	persist := services.PersistFunc(func(ctx context.Context, snapshot order.Snapshot) error {
		if err := orderRepo.Update(ctx, snapshot, loadedVersion); err != nil {
			return err
		}
		return uow.Commit(ctx)
	})

	return machine.RequestTransitionHeld(ctx, lease, cmd.Target(), cmd.Reason(), cmd.Details(), persist)
}
