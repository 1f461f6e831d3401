package services_test

import (
	"errors"
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T, stub *collaboratorsStub, opts ...services.HookPipelineOption) *services.HookPipeline {
	t.Helper()
	p, err := services.NewHookPipeline(stub.collaborators(), discardLogger(), opts...)
	require.NoError(t, err)
	return p
}

func deliveredSnapshot(t *testing.T, deliveredAt time.Time) order.Snapshot {
	t.Helper()

	item, err := order.NewLineItem(1, 1)
	require.NoError(t, err)
	total, err := kernel.NewMoney(100)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), []order.LineItem{item}, total, startTime)
	require.NoError(t, err)

	_, err = o.Transition(order.Processing, "", nil, startTime)
	require.NoError(t, err)
	_, err = o.Transition(order.Shipped, "", nil, startTime)
	require.NoError(t, err)
	_, err = o.Transition(order.Delivered, "", nil, deliveredAt)
	require.NoError(t, err)
	return o.Snapshot()
}

func TestNewHookPipeline(t *testing.T) {
	t.Run("should require every collaborator", func(t *testing.T) {
		p, err := services.NewHookPipeline(services.Collaborators{}, discardLogger())

		require.Error(t, err)
		assert.Nil(t, p)
		assert.True(t, errs.IsInvalidArgument(err))
		assert.Contains(t, err.Error(), "inventory service")
		assert.Contains(t, err.Error(), "analytics recorder")
	})

	t.Run("should register pre-hooks by target status", func(t *testing.T) {
		p := newPipeline(t, newCollaboratorsStub())

		assert.Equal(t, []string{services.HookInventoryAvailability}, p.PreHooks(order.Processing))
		assert.Equal(t, []string{services.HookPaymentVerification}, p.PreHooks(order.Shipped))
		assert.Equal(t, []string{services.HookRefundEligibility}, p.PreHooks(order.Refunded))
		for _, to := range []order.Status{order.Pending, order.Delivered, order.Cancelled, order.Failed} {
			assert.Empty(t, p.PreHooks(to), to.String())
		}
	})

	t.Run("should register post-hooks in fixed order", func(t *testing.T) {
		p := newPipeline(t, newCollaboratorsStub())

		assert.Equal(t, []string{
			services.HookNotification,
			services.HookInventoryReservation,
			services.HookWebhooks,
			services.HookAnalytics,
		}, p.PostHooks(order.Processing))
		assert.Equal(t, []string{
			services.HookNotification,
			services.HookInventoryRelease,
			services.HookWebhooks,
			services.HookAnalytics,
		}, p.PostHooks(order.Cancelled))
		assert.Equal(t, p.PostHooks(order.Cancelled), p.PostHooks(order.Failed))
		assert.Equal(t, []string{
			services.HookNotification,
			services.HookWebhooks,
			services.HookAnalytics,
		}, p.PostHooks(order.Delivered))
	})
}

func TestHookPipeline_RunPre(t *testing.T) {
	t.Run("should wrap hook error in precondition failure", func(t *testing.T) {
		stub := newCollaboratorsStub()
		cause := errors.New("insufficient inventory")
		stub.fail("CheckAvailability", cause)
		observer := &observerStub{}
		p := newPipeline(t, stub, services.WithHookObserver(observer))

		err := p.RunPre(t.Context(), services.Transition{From: order.Pending, To: order.Processing})

		var target *errs.PreconditionFailedError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, services.HookInventoryAvailability, target.Hook)
		require.ErrorIs(t, err, cause)
		assert.Equal(t, []hookFailure{{stage: services.StagePre, hook: services.HookInventoryAvailability}}, observer.failures)
	})

	t.Run("should turn hook panic into precondition failure", func(t *testing.T) {
		stub := newCollaboratorsStub()
		stub.explode("Verify")
		p := newPipeline(t, stub)

		err := p.RunPre(t.Context(), services.Transition{From: order.Processing, To: order.Shipped})

		require.ErrorIs(t, err, errs.ErrPreconditionFailed)
		assert.Contains(t, err.Error(), "Verify exploded")
	})

	t.Run("should run nothing for targets without pre-hooks", func(t *testing.T) {
		stub := newCollaboratorsStub()
		p := newPipeline(t, stub)

		require.NoError(t, p.RunPre(t.Context(), services.Transition{From: order.Shipped, To: order.Delivered}))
		assert.Empty(t, stub.recorded())
	})

	t.Run("should accept refund inside the window", func(t *testing.T) {
		p := newPipeline(t, newCollaboratorsStub())
		deliveredAt := startTime.Add(time.Hour)

		err := p.RunPre(t.Context(), services.Transition{
			Order: deliveredSnapshot(t, deliveredAt),
			From:  order.Delivered,
			To:    order.Refunded,
			At:    deliveredAt.Add(services.RefundWindow),
		})

		require.NoError(t, err)
	})

	t.Run("should reject refund after the window", func(t *testing.T) {
		p := newPipeline(t, newCollaboratorsStub())
		deliveredAt := startTime.Add(time.Hour)

		err := p.RunPre(t.Context(), services.Transition{
			Order: deliveredSnapshot(t, deliveredAt),
			From:  order.Delivered,
			To:    order.Refunded,
			At:    deliveredAt.Add(services.RefundWindow + time.Minute),
		})

		require.ErrorIs(t, err, errs.ErrPreconditionFailed)
		require.ErrorIs(t, err, services.ErrRefundWindowExpired)
	})

	t.Run("should accept refund of order never delivered", func(t *testing.T) {
		p := newPipeline(t, newCollaboratorsStub())

		err := p.RunPre(t.Context(), services.Transition{
			From: order.Shipped,
			To:   order.Refunded,
			At:   startTime.Add(365 * 24 * time.Hour),
		})

		require.NoError(t, err)
	})
}

func TestHookPipeline_RunPost(t *testing.T) {
	t.Run("should run every hook despite failures and panics", func(t *testing.T) {
		stub := newCollaboratorsStub()
		stub.fail("Notify", errors.New("smtp down"))
		stub.explode("Trigger")
		observer := &observerStub{}
		p := newPipeline(t, stub, services.WithHookObserver(observer))

		require.NotPanics(t, func() {
			p.RunPost(t.Context(), services.Transition{From: order.Pending, To: order.Processing})
		})

		assert.Equal(t, []string{"Notify", "Reserve", "Trigger", "Record"}, stub.recorded())
		assert.Equal(t, []hookFailure{
			{stage: services.StagePost, hook: services.HookNotification},
			{stage: services.StagePost, hook: services.HookWebhooks},
		}, observer.failures)
	})

	t.Run("should release inventory on cancellation", func(t *testing.T) {
		stub := newCollaboratorsStub()
		p := newPipeline(t, stub)

		p.RunPost(t.Context(), services.Transition{From: order.Processing, To: order.Cancelled})

		assert.Equal(t, []string{"Notify", "Release", "Trigger", "Record"}, stub.recorded())
	})
}
