package services_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"

	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: startTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// collaboratorsStub implements every collaborator port and records the calls it receives.
type collaboratorsStub struct {
	mu     sync.Mutex
	calls  []string
	errors map[string]error
	panics map[string]bool
	hold   func(ctx context.Context, method string)
}

func newCollaboratorsStub() *collaboratorsStub {
	return &collaboratorsStub{
		errors: make(map[string]error),
		panics: make(map[string]bool),
	}
}

func (s *collaboratorsStub) collaborators() services.Collaborators {
	return services.Collaborators{
		Inventory:    s,
		Payment:      s,
		Notification: s,
		Webhooks:     s,
		Analytics:    s,
	}
}

func (s *collaboratorsStub) fail(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors[method] = err
}

func (s *collaboratorsStub) explode(method string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panics[method] = true
}

func (s *collaboratorsStub) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *collaboratorsStub) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *collaboratorsStub) call(ctx context.Context, method string) error {
	s.mu.Lock()
	s.calls = append(s.calls, method)
	err := s.errors[method]
	panicking := s.panics[method]
	hold := s.hold
	s.mu.Unlock()

	if hold != nil {
		hold(ctx, method)
	}
	if panicking {
		panic(fmt.Sprintf("%s exploded", method))
	}
	return err
}

func (s *collaboratorsStub) CheckAvailability(ctx context.Context, _ []order.LineItem) error {
	return s.call(ctx, "CheckAvailability")
}

func (s *collaboratorsStub) Reserve(ctx context.Context, _ kernel.UUID, _ []order.LineItem) error {
	return s.call(ctx, "Reserve")
}

func (s *collaboratorsStub) Release(ctx context.Context, _ kernel.UUID) error {
	return s.call(ctx, "Release")
}

func (s *collaboratorsStub) Verify(ctx context.Context, _ kernel.UUID) error {
	return s.call(ctx, "Verify")
}

func (s *collaboratorsStub) Notify(ctx context.Context, _ kernel.UUID, _ order.Status) error {
	return s.call(ctx, "Notify")
}

func (s *collaboratorsStub) Trigger(ctx context.Context, _ kernel.UUID, _, _ order.Status) error {
	return s.call(ctx, "Trigger")
}

func (s *collaboratorsStub) Record(ctx context.Context, _ kernel.UUID, _, _ order.Status) error {
	return s.call(ctx, "Record")
}

type eventRecorder struct {
	mu     sync.Mutex
	events []services.Event
}

func (r *eventRecorder) Handle(_ context.Context, event services.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) all() []services.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]services.Event(nil), r.events...)
}

type hookFailure struct {
	stage string
	hook  string
}

type observerStub struct {
	mu       sync.Mutex
	failures []hookFailure
}

func (o *observerStub) HookFailed(_ context.Context, stage, hook string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, hookFailure{stage: stage, hook: hook})
}

type fixture struct {
	lifecycle *services.OrderLifecycle
	lock      *services.TransitionLock
	stub      *collaboratorsStub
	events    *eventRecorder
	clock     *fakeClock
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		lock:   services.NewTransitionLock(),
		stub:   newCollaboratorsStub(),
		events: &eventRecorder{},
		clock:  newFakeClock(),
	}

	pipeline, err := services.NewHookPipeline(f.stub.collaborators(), discardLogger())
	require.NoError(t, err)

	publisher := services.NewEventPublisher(discardLogger())
	publisher.Subscribe(f.events)

	f.lifecycle, err = services.NewOrderLifecycle(f.lock, pipeline, publisher, discardLogger(),
		services.WithClock(f.clock.Now))
	require.NoError(t, err)

	return f
}

func (f *fixture) create(t *testing.T) *services.OrderStateMachine {
	t.Helper()

	item, err := order.NewLineItem(1, 2)
	require.NoError(t, err)
	total, err := kernel.MoneyFromDecimal(100.00)
	require.NoError(t, err)

	m, err := f.lifecycle.Create(t.Context(), kernel.NewUUID(), kernel.NewUUID(), []order.LineItem{item}, total)
	require.NoError(t, err)
	return m
}

// pathTo lists the transitions that lead from Pending to the given status.
func pathTo(s order.Status) []order.Status {
	switch s {
	case order.Processing:
		return []order.Status{order.Processing}
	case order.Shipped:
		return []order.Status{order.Processing, order.Shipped}
	case order.Delivered:
		return []order.Status{order.Processing, order.Shipped, order.Delivered}
	case order.Cancelled:
		return []order.Status{order.Cancelled}
	case order.Failed:
		return []order.Status{order.Failed}
	case order.Refunded:
		return []order.Status{order.Processing, order.Shipped, order.Refunded}
	default:
		return nil
	}
}

func (f *fixture) createIn(t *testing.T, s order.Status) *services.OrderStateMachine {
	t.Helper()

	m := f.create(t)
	for _, to := range pathTo(s) {
		require.NoError(t, m.RequestTransition(t.Context(), to, "setup", nil))
	}
	require.Equal(t, s, m.Status().Status)
	return m
}
