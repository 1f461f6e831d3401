package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// Hook stages reported to a HookObserver.
const (
	StagePre  = "pre"
	StagePost = "post"
)

// Collaborators groups the external services called by transition hooks.
type Collaborators struct {
	Inventory    ports.InventoryService
	Payment      ports.PaymentService
	Notification ports.NotificationService
	Webhooks     ports.WebhookDispatcher
	Analytics    ports.AnalyticsRecorder
}

func (c Collaborators) validate() error {
	var errList []error
	if c.Inventory == nil {
		errList = append(errList, errs.NewValueIsRequiredError("inventory service"))
	}
	if c.Payment == nil {
		errList = append(errList, errs.NewValueIsRequiredError("payment service"))
	}
	if c.Notification == nil {
		errList = append(errList, errs.NewValueIsRequiredError("notification service"))
	}
	if c.Webhooks == nil {
		errList = append(errList, errs.NewValueIsRequiredError("webhook dispatcher"))
	}
	if c.Analytics == nil {
		errList = append(errList, errs.NewValueIsRequiredError("analytics recorder"))
	}
	return errors.Join(errList...)
}

// HookObserver is told about every failed hook. Implementations must not block.
type HookObserver interface {
	HookFailed(ctx context.Context, stage, hook string, err error)
}

// HookPipelineOption configures a HookPipeline.
type HookPipelineOption func(*HookPipeline)

// WithHookObserver reports hook failures to o.
func WithHookObserver(o HookObserver) HookPipelineOption {
	return func(p *HookPipeline) {
		p.observer = o
	}
}

// HookPipeline runs the hooks registered for the target status of a transition.
//
// Pre-hooks gate the transition: the first failure stops the pipeline.
//
//	Processing -> inventory availability
//	Shipped    -> payment verification
//	Refunded   -> refund eligibility
//
// Post-hooks are best-effort and always run in this order:
//
//	notification -> inventory reservation (Processing only)
//	             -> inventory release (Cancelled, Failed only)
//	             -> webhooks -> analytics
//
// The tables are built once in NewHookPipeline and never change.
type HookPipeline struct {
	collaborators Collaborators
	pre           map[order.Status][]Hook
	post          map[order.Status][]Hook
	observer      HookObserver
	logger        *slog.Logger
}

// NewHookPipeline builds the static hook tables. All collaborators are required.
func NewHookPipeline(c Collaborators, logger *slog.Logger, opts ...HookPipelineOption) (*HookPipeline, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	p := &HookPipeline{
		collaborators: c,
		logger:        logger.With("component", "hook_pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.pre = map[order.Status][]Hook{
		order.Processing: {{Name: HookInventoryAvailability, Run: p.checkInventory}},
		order.Shipped:    {{Name: HookPaymentVerification, Run: p.verifyPayment}},
		order.Refunded:   {{Name: HookRefundEligibility, Run: p.checkRefundEligibility}},
	}

	p.post = make(map[order.Status][]Hook, len(order.Statuses()))
	for _, to := range order.Statuses() {
		hooks := []Hook{{Name: HookNotification, Run: p.notify}}
		switch to {
		case order.Processing:
			hooks = append(hooks, Hook{Name: HookInventoryReservation, Run: p.reserveInventory})
		case order.Cancelled, order.Failed:
			hooks = append(hooks, Hook{Name: HookInventoryRelease, Run: p.releaseInventory})
		}
		hooks = append(hooks,
			Hook{Name: HookWebhooks, Run: p.triggerWebhooks},
			Hook{Name: HookAnalytics, Run: p.recordAnalytics},
		)
		p.post[to] = hooks
	}

	return p, nil
}

// PreHooks returns the names of the pre-hooks registered for to.
func (p *HookPipeline) PreHooks(to order.Status) []string {
	return hookNames(p.pre[to])
}

// PostHooks returns the names of the post-hooks registered for to.
func (p *HookPipeline) PostHooks(to order.Status) []string {
	return hookNames(p.post[to])
}

// RunPre runs the pre-hooks of t.To in order and stops at the first failure.
//
// Returns *errs.PreconditionFailedError naming the failed hook and wrapping its error.
func (p *HookPipeline) RunPre(ctx context.Context, t Transition) error {
	for _, hook := range p.pre[t.To] {
		if err := runHook(ctx, hook, t); err != nil {
			p.report(ctx, StagePre, hook.Name, t, err)
			return errs.NewPreconditionFailedError(hook.Name, err)
		}
	}
	return nil
}

// RunPost runs every post-hook of t.To. Failures are logged and reported to the
// observer; they never stop later hooks and are not returned.
func (p *HookPipeline) RunPost(ctx context.Context, t Transition) {
	for _, hook := range p.post[t.To] {
		if err := runHook(ctx, hook, t); err != nil {
			p.report(ctx, StagePost, hook.Name, t, err)
		}
	}
}

func (p *HookPipeline) report(ctx context.Context, stage, hook string, t Transition, err error) {
	level := slog.LevelWarn
	if stage == StagePost {
		level = slog.LevelError
	}
	p.logger.Log(ctx, level, "Transition hook failed",
		"stage", stage,
		"hook", hook,
		"order_id", t.Order.ID.String(),
		"from", t.From.String(),
		"to", t.To.String(),
		"error", err,
	)
	if p.observer != nil {
		p.observer.HookFailed(ctx, stage, hook, err)
	}
}

func runHook(ctx context.Context, hook Hook, t Transition) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook %s panicked: %v", hook.Name, r)
		}
	}()
	return hook.Run(ctx, t)
}

func hookNames(hooks []Hook) []string {
	names := make([]string, 0, len(hooks))
	for _, hook := range hooks {
		names = append(names, hook.Name)
	}
	return names
}
