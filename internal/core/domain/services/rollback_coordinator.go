package services

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/order"
)

// RollbackReason is the reason stored in rollback history records.
const RollbackReason = "rollback due to error"

// rollbackTarget is the order a rollback is applied to. The state machine implements
// it, serializing the write against readers and persisting the record when asked to.
type rollbackTarget interface {
	recordRollback(
		ctx context.Context,
		previous, attempted order.Status,
		details map[string]string,
		cause error,
		at time.Time,
	) (order.Snapshot, error)
}

// RollbackCoordinator handles transitions rejected by a pre-hook. It restores the
// previous status, appends a rollback record carrying the error text and publishes
// TransitionFailed.
//
// Side effects of pre-hooks that already ran are not compensated.
type RollbackCoordinator struct {
	publisher *EventPublisher
	clock     Clock
	logger    *slog.Logger
}

// NewRollbackCoordinator creates a coordinator publishing to publisher.
func NewRollbackCoordinator(publisher *EventPublisher, clock Clock, logger *slog.Logger) *RollbackCoordinator {
	return &RollbackCoordinator{
		publisher: publisher,
		clock:     clock,
		logger:    logger.With("component", "rollback_coordinator"),
	}
}

// Rollback records the failed attempt t on target. It returns the error of the
// history append; the TransitionFailed event is only published when the append succeeded.
func (c *RollbackCoordinator) Rollback(ctx context.Context, target rollbackTarget, t Transition, cause error) error {
	at := c.clock()

	snapshot, err := target.recordRollback(ctx, t.From, t.To, t.Context, cause, at)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to record rollback",
			"order_id", t.Order.ID.String(),
			"attempted", t.To.String(),
			"error", err,
		)
		return err
	}

	c.logger.InfoContext(ctx, "Transition rolled back",
		"order_id", snapshot.ID.String(),
		"state", snapshot.Status.String(),
		"attempted", t.To.String(),
		"version", snapshot.Version,
		"cause", cause.Error(),
	)

	c.publisher.Publish(ctx, TransitionFailed{
		OrderID:        snapshot.ID,
		CurrentState:   snapshot.Status,
		AttemptedState: t.To,
		Error:          cause.Error(),
		Timestamp:      at,
	})
	return nil
}
