package commands

import (
	"errors"
	"maps"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand represents a request to move an existing order to another status.
// Reason and context are stored in the history record of the attempt.
//
// Example:
//
//	cmd, err := NewTransitionOrderCommand(orderID, order.Shipped, "handed to carrier",
//	    map[string]string{"tracking": "1Z999"})
//	if err != nil {
//	    return err
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("transition failed: %w", err)
//	}
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	target  order.Status
	reason  string
	details map[string]string

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand creates a command to transition an order.
// The target must be one of the lifecycle statuses; whether the edge is legal is
// decided by the state machine when the command is handled.
func NewTransitionOrderCommand(
	orderID kernel.UUID,
	target order.Status,
	reason string,
	details map[string]string,
) (TransitionOrderCommand, error) {
	command := TransitionOrderCommand{
		reason:  reason,
		details: maps.Clone(details),
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(orderID),
		command.setTarget(target),
	); err != nil {
		return TransitionOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrTransitionOrderCommandIsNotConstructed if validation fails.
func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

// OrderID returns the identifier of the order to transition.
func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Target returns the requested status.
func (c TransitionOrderCommand) Target() order.Status {
	return c.target
}

// Reason returns the human-readable reason of the transition.
func (c TransitionOrderCommand) Reason() string {
	return c.reason
}

// Details returns a copy of the free-form transition context.
func (c TransitionOrderCommand) Details() map[string]string {
	return maps.Clone(c.details)
}

func (c *TransitionOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *TransitionOrderCommand) setTarget(target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}

	c.target = target
	return nil
}
