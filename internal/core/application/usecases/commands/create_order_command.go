package commands

import (
	"errors"
	"slices"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrItemsAreRequired     = errs.NewValueIsRequiredError("items")
	ErrTotalAmountIsInvalid = errs.NewValueIsInvalidError("total amount")
)

// CreateOrderCommand represents a request to register a new order in Pending.
//
// Example:
//
//	item, _ := order.NewLineItem(1, 2)
//	total, _ := kernel.MoneyFromDecimal(100.00)
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), userID, []order.LineItem{item}, total)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	handler := NewCreateOrderCommandHandler(uowFactory, lifecycle)
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	userID  kernel.UUID
	items   []order.LineItem
	total   kernel.Money

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to register a new order.
// Validates both identifiers, requires at least one valid line item and a positive total.
// Returns an error if any validation fails.
func NewCreateOrderCommand(
	orderID, userID kernel.UUID,
	items []order.LineItem,
	total kernel.Money,
) (CreateOrderCommand, error) {
	command := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setUserID(userID),
		command.setItems(items),
		command.setTotal(total),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// UserID returns the identifier of the user placing the order.
func (c CreateOrderCommand) UserID() kernel.UUID {
	return c.userID
}

// Items returns a copy of the ordered line items.
func (c CreateOrderCommand) Items() []order.LineItem {
	return slices.Clone(c.items)
}

// TotalAmount returns the order total.
func (c CreateOrderCommand) TotalAmount() kernel.Money {
	return c.total
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setUserID(userID kernel.UUID) error {
	if err := userID.Validate(); err != nil {
		return err
	}

	c.userID = userID
	return nil
}

func (c *CreateOrderCommand) setItems(items []order.LineItem) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	c.items = slices.Clone(items)
	return nil
}

func (c *CreateOrderCommand) setTotal(total kernel.Money) error {
	if err := total.Validate(); err != nil {
		return ErrTotalAmountIsInvalid
	}

	c.total = total
	return nil
}
