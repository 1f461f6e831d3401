package commands

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
)

// ExpirePendingOrdersCommandHandler cancels stale Pending orders.
//
// Candidates are listed outside of a transaction and each one is then cancelled through
// TransitionOrderCommandHandler in its own unit of work, so one failing order never
// blocks the others. Orders that left Pending or are being transitioned concurrently
// since the listing are skipped.
type ExpirePendingOrdersCommandHandler struct {
	uowFactory  OrderUoWFactory
	transitions TransitionOrderCommandHandler
}

// NewExpirePendingOrdersCommandHandler creates a handler for pending order expiry.
func NewExpirePendingOrdersCommandHandler(
	uowFactory OrderUoWFactory,
	lifecycle OrderLifecycle,
) ExpirePendingOrdersCommandHandler {
	return ExpirePendingOrdersCommandHandler{
		uowFactory:  uowFactory,
		transitions: NewTransitionOrderCommandHandler(uowFactory, lifecycle),
	}
}

// Handle cancels the expired orders and returns how many were cancelled.
// Errors of individual orders are joined; skipped orders are not errors.
func (h *ExpirePendingOrdersCommandHandler) Handle(ctx context.Context, cmd ExpirePendingOrdersCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	candidates, err := h.uowFactory.Create().OrderRepository().ListPendingCreatedBefore(ctx, cmd.Cutoff(), cmd.Limit())
	if err != nil {
		return 0, err
	}

	var (
		expired int
		errList []error
	)
	for _, candidate := range candidates {
		transition, cmdErr := NewTransitionOrderCommand(
			candidate.ID(),
			order.Cancelled,
			ExpiredOrderReason,
			map[string]string{"expired_before": cmd.Cutoff().UTC().Format(time.RFC3339)},
		)
		if cmdErr != nil {
			errList = append(errList, cmdErr)
			continue
		}

		err = h.transitions.Handle(ctx, transition)
		switch {
		case err == nil:
			expired++
		case isSkippable(err):
		default:
			errList = append(errList, err)
		}
	}

	return expired, errors.Join(errList...)
}

func isSkippable(err error) bool {
	return errors.Is(err, errs.ErrIllegalTransition) ||
		errors.Is(err, errs.ErrConcurrentTransitionInProgress) ||
		errors.Is(err, errs.ErrVersionConflict)
}
