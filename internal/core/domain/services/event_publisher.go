package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// EventSubscriber receives events from an EventPublisher.
type EventSubscriber interface {
	Handle(ctx context.Context, event Event) error
}

// EventSubscriberFunc adapts a plain function to EventSubscriber.
type EventSubscriberFunc func(ctx context.Context, event Event) error

// Handle calls f(ctx, event).
func (f EventSubscriberFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

type subscription struct {
	id         uint64
	subscriber EventSubscriber
}

// EventPublisher delivers events synchronously to every subscriber in subscription
// order. A failing or panicking subscriber is logged and skipped; it never affects
// other subscribers or the publisher's caller.
type EventPublisher struct {
	mu            sync.RWMutex
	nextID        uint64
	subscriptions []subscription
	logger        *slog.Logger
}

// NewEventPublisher creates a publisher without subscribers.
func NewEventPublisher(logger *slog.Logger) *EventPublisher {
	return &EventPublisher{
		logger: logger.With("component", "event_publisher"),
	}
}

// Subscribe registers s and returns a function that removes it again.
// Calling the returned function more than once is safe.
func (p *EventPublisher) Subscribe(s EventSubscriber) (unsubscribe func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.subscriptions = append(p.subscriptions, subscription{id: id, subscriber: s})

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		p.subscriptions = slices.DeleteFunc(p.subscriptions, func(sub subscription) bool {
			return sub.id == id
		})
	}
}

// Publish delivers event to the subscribers registered at the time of the call.
func (p *EventPublisher) Publish(ctx context.Context, event Event) {
	p.mu.RLock()
	subscriptions := slices.Clone(p.subscriptions)
	p.mu.RUnlock()

	for _, sub := range subscriptions {
		if err := p.deliver(ctx, sub.subscriber, event); err != nil {
			p.logger.ErrorContext(ctx, "Event subscriber failed",
				"event", event.Name(),
				"order_id", event.AggregateID().String(),
				"error", err,
			)
		}
	}
}

func (p *EventPublisher) deliver(ctx context.Context, s EventSubscriber, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panicked: %v", r)
		}
	}()
	return s.Handle(ctx, event)
}
