package commands

import (
	"errors"
	"fmt"
	"time"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrExpirePendingOrdersCommandIsNotConstructed = errors.New(
	"ExpirePendingOrdersCommand must be created via NewExpirePendingOrdersCommand constructor",
)

// ExpiredOrderReason is the history reason of orders cancelled by ExpirePendingOrdersCommand.
const ExpiredOrderReason = "pending order expired"

// ExpirePendingOrdersCommand cancels orders that stayed Pending since before a cutoff.
// At most limit orders are processed per command, oldest first.
//
// Example:
//
//	cmd, _ := NewExpirePendingOrdersCommand(time.Now().Add(-24*time.Hour), 100)
//	expired, err := handler.Handle(ctx, cmd)
type ExpirePendingOrdersCommand struct { //nolint:recvcheck //using for validation
	cutoff time.Time
	limit  int

	guard guard.ConstructorGuard
}

// NewExpirePendingOrdersCommand creates the command. cutoff must be set and limit positive.
func NewExpirePendingOrdersCommand(cutoff time.Time, limit int) (ExpirePendingOrdersCommand, error) {
	command := ExpirePendingOrdersCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setCutoff(cutoff),
		command.setLimit(limit),
	); err != nil {
		return ExpirePendingOrdersCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c ExpirePendingOrdersCommand) Validate() error {
	return c.guard.Validate(ErrExpirePendingOrdersCommandIsNotConstructed)
}

// Cutoff returns the creation time before which Pending orders expire.
func (c ExpirePendingOrdersCommand) Cutoff() time.Time {
	return c.cutoff
}

// Limit returns the maximum number of orders handled by one command.
func (c ExpirePendingOrdersCommand) Limit() int {
	return c.limit
}

func (c *ExpirePendingOrdersCommand) setCutoff(cutoff time.Time) error {
	if cutoff.IsZero() {
		return errs.NewValueIsRequiredError("cutoff")
	}

	c.cutoff = cutoff
	return nil
}

func (c *ExpirePendingOrdersCommand) setLimit(limit int) error {
	if limit <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("limit", fmt.Errorf("%d is not greater than 0", limit))
	}

	c.limit = limit
	return nil
}
