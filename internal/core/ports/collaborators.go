// Package ports defines the contracts between the order lifecycle core and the
// infrastructure around it: persistence, the transition lock and the external
// services called by transition hooks.
package ports

import (
	"context"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// InventoryService checks and holds stock for order line items.
type InventoryService interface {
	// CheckAvailability returns an error when any item cannot be supplied in the
	// requested quantity. It must not hold stock.
	CheckAvailability(ctx context.Context, items []order.LineItem) error

	// Reserve holds stock for the items on behalf of orderID.
	Reserve(ctx context.Context, orderID kernel.UUID, items []order.LineItem) error

	// Release gives back the stock reserved for orderID. Releasing an order that
	// holds no reservation does nothing.
	Release(ctx context.Context, orderID kernel.UUID) error
}

// PaymentService verifies that an order has been paid.
type PaymentService interface {
	Verify(ctx context.Context, orderID kernel.UUID) error
}

// NotificationService informs the order owner about a new status.
type NotificationService interface {
	Notify(ctx context.Context, orderID kernel.UUID, status order.Status) error
}

// WebhookDispatcher triggers the integration webhooks for a committed transition.
type WebhookDispatcher interface {
	Trigger(ctx context.Context, orderID kernel.UUID, from, to order.Status) error
}

// AnalyticsRecorder records a committed transition for reporting.
type AnalyticsRecorder interface {
	Record(ctx context.Context, orderID kernel.UUID, from, to order.Status) error
}
