package services

import (
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

const (
	EventStateChanged     = "order.state_changed"
	EventTransitionFailed = "order.transition_failed"
)

// Event is published by the state machine after a transition attempt completes.
type Event interface {
	Name() string
	AggregateID() kernel.UUID
	OccurredAt() time.Time
}

// StateChanged is published after a transition was committed and its post-hooks ran.
type StateChanged struct {
	OrderID   kernel.UUID
	From      order.Status
	To        order.Status
	Reason    string
	Version   int64
	Timestamp time.Time
}

func (e StateChanged) Name() string             { return EventStateChanged }
func (e StateChanged) AggregateID() kernel.UUID { return e.OrderID }
func (e StateChanged) OccurredAt() time.Time    { return e.Timestamp }

// TransitionFailed is published after a pre-hook rejected a transition and the
// rollback record was appended.
type TransitionFailed struct {
	OrderID        kernel.UUID
	CurrentState   order.Status
	AttemptedState order.Status
	Error          string
	Timestamp      time.Time
}

func (e TransitionFailed) Name() string             { return EventTransitionFailed }
func (e TransitionFailed) AggregateID() kernel.UUID { return e.OrderID }
func (e TransitionFailed) OccurredAt() time.Time    { return e.Timestamp }
