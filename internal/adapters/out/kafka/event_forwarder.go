package kafka

import (
	"context"
	"fmt"
	"time"

	"orderflow/internal/core/domain/services"
)

// OrderEventMessage is the wire form of StateChanged and TransitionFailed events.
// Fields that do not apply to an event are omitted.
type OrderEventMessage struct {
	Event          string    `json:"event"`
	OrderID        string    `json:"order_id"`
	From           string    `json:"from,omitempty"`
	To             string    `json:"to,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Version        int64     `json:"version,omitempty"`
	CurrentState   string    `json:"current_state,omitempty"`
	AttemptedState string    `json:"attempted_state,omitempty"`
	Error          string    `json:"error,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EventForwarder is a services.EventSubscriber that forwards lifecycle events to the
// order-changed topic.
type EventForwarder struct {
	writer MessageWriter
}

// NewEventForwarder creates a forwarder writing through w.
func NewEventForwarder(w MessageWriter) *EventForwarder {
	return &EventForwarder{writer: w}
}

// Handle writes the event. Unknown event types are rejected.
func (f *EventForwarder) Handle(ctx context.Context, event services.Event) error {
	message := OrderEventMessage{
		Event:      event.Name(),
		OrderID:    event.AggregateID().String(),
		OccurredAt: event.OccurredAt().UTC(),
	}

	switch e := event.(type) {
	case services.StateChanged:
		message.From = e.From.String()
		message.To = e.To.String()
		message.Reason = e.Reason
		message.Version = e.Version
	case services.TransitionFailed:
		message.CurrentState = e.CurrentState.String()
		message.AttemptedState = e.AttemptedState.String()
		message.Error = e.Error
	default:
		return fmt.Errorf("unsupported event %T", event)
	}

	return write(ctx, f.writer, message.OrderID, event.Name(), message)
}
