package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderflow/internal/core/domain/model/order"
)

// Hook names reported in errors, logs and metrics.
const (
	HookInventoryAvailability = "inventory_availability"
	HookPaymentVerification   = "payment_verification"
	HookRefundEligibility     = "refund_eligibility"
	HookNotification          = "notification"
	HookInventoryReservation  = "inventory_reservation"
	HookInventoryRelease      = "inventory_release"
	HookWebhooks              = "webhooks"
	HookAnalytics             = "analytics"
)

// RefundWindow is the longest time after delivery in which a refund is accepted.
const RefundWindow = 30 * 24 * time.Hour

// ErrRefundWindowExpired is returned by the refund eligibility hook.
var ErrRefundWindowExpired = errors.New("refund window expired")

// Transition describes one transition attempt as seen by hooks.
// Order is the snapshot taken before the attempt for pre-hooks and after the
// commit for post-hooks.
type Transition struct {
	Order   order.Snapshot
	From    order.Status
	To      order.Status
	Reason  string
	Context map[string]string
	At      time.Time
}

// Hook is one named step of the pipeline.
type Hook struct {
	Name string
	Run  func(ctx context.Context, t Transition) error
}

func (p *HookPipeline) checkInventory(ctx context.Context, t Transition) error {
	return p.collaborators.Inventory.CheckAvailability(ctx, t.Order.Items)
}

func (p *HookPipeline) verifyPayment(ctx context.Context, t Transition) error {
	return p.collaborators.Payment.Verify(ctx, t.Order.ID)
}

// checkRefundEligibility rejects refunds requested more than RefundWindow after
// delivery. Orders refunded straight from Shipped were never delivered and are eligible.
func (p *HookPipeline) checkRefundEligibility(_ context.Context, t Transition) error {
	deliveredAt, ok := t.Order.DeliveredAt()
	if !ok {
		return nil
	}
	if elapsed := t.At.Sub(deliveredAt); elapsed > RefundWindow {
		return fmt.Errorf("%w: delivered %s ago", ErrRefundWindowExpired, elapsed.Round(time.Hour))
	}
	return nil
}

func (p *HookPipeline) notify(ctx context.Context, t Transition) error {
	return p.collaborators.Notification.Notify(ctx, t.Order.ID, t.To)
}

func (p *HookPipeline) reserveInventory(ctx context.Context, t Transition) error {
	return p.collaborators.Inventory.Reserve(ctx, t.Order.ID, t.Order.Items)
}

func (p *HookPipeline) releaseInventory(ctx context.Context, t Transition) error {
	return p.collaborators.Inventory.Release(ctx, t.Order.ID)
}

func (p *HookPipeline) triggerWebhooks(ctx context.Context, t Transition) error {
	return p.collaborators.Webhooks.Trigger(ctx, t.Order.ID, t.From, t.To)
}

func (p *HookPipeline) recordAnalytics(ctx context.Context, t Transition) error {
	return p.collaborators.Analytics.Record(ctx, t.Order.ID, t.From, t.To)
}
