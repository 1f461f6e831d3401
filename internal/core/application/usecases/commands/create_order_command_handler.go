package commands

import (
	"context"
)

// CreateOrderCommandHandler handles the business logic for order creation.
// Starts the order lifecycle in Pending and persists the initial snapshot with its
// creation record.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, lifecycle)
//	cmd, _ := NewCreateOrderCommand(orderID, userID, items, total)
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	lifecycle  OrderLifecycle
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
// Requires an OrderUoWFactory for transactional persistence and the order lifecycle service.
func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, lifecycle OrderLifecycle) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
	}
}

// Handle processes the order creation command.
// Uses transaction to ensure order is properly persisted or rolled back on error.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	machine, err := h.lifecycle.Create(ctx, cmd.OrderID(), cmd.UserID(), cmd.Items(), cmd.TotalAmount())
	if err != nil {
		return err
	}

	if err = orderRepo.Add(ctx, machine.Status()); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return nil
}
