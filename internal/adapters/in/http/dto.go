package http

import (
	"time"

	"orderflow/internal/core/application/usecases/queries"
)

// Error is the body of every failed request. Hook names the rejecting pre-transition
// hook for 422 responses.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Hook    string `json:"hook,omitempty"`
}

// LineItem is one ordered item.
type LineItem struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// NewOrder is the body of POST /api/v1/orders.
type NewOrder struct {
	UserID      string     `json:"user_id"`
	Items       []LineItem `json:"items"`
	TotalAmount float64    `json:"total_amount"`
}

// TransitionRequest is the body of POST /api/v1/orders/{orderId}/transitions.
type TransitionRequest struct {
	Status  string            `json:"status"`
	Reason  string            `json:"reason"`
	Context map[string]string `json:"context"`
}

// Order is the current state of an order.
type Order struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Status             string     `json:"status"`
	Version            int64      `json:"version"`
	TotalAmount        float64    `json:"total_amount"`
	Items              []LineItem `json:"items"`
	AllowedTransitions []string   `json:"allowed_transitions"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TransitionRecord is one history entry.
type TransitionRecord struct {
	Sequence       int               `json:"sequence"`
	State          string            `json:"state"`
	PreviousState  string            `json:"previous_state,omitempty"`
	AttemptedState string            `json:"attempted_state,omitempty"`
	At             time.Time         `json:"at"`
	Reason         string            `json:"reason"`
	Context        map[string]string `json:"context,omitempty"`
	Error          string            `json:"error,omitempty"`
	Rollback       bool              `json:"rollback"`
}

func orderFromQuery(r queries.GetOrderStatusQueryResponse) Order {
	items := make([]LineItem, len(r.Items))
	for i, item := range r.Items {
		items[i] = LineItem{ItemID: item.ItemID, Quantity: item.Quantity}
	}

	return Order{
		ID:                 r.ID.String(),
		UserID:             r.UserID.String(),
		Status:             r.Status,
		Version:            r.Version,
		TotalAmount:        r.TotalAmount.Decimal(),
		Items:              items,
		AllowedTransitions: r.AllowedTransitions,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
	}
}

func historyFromQuery(records []queries.GetOrderHistoryQueryResponse) []TransitionRecord {
	response := make([]TransitionRecord, len(records))
	for i, r := range records {
		response[i] = TransitionRecord{
			Sequence:       r.Sequence,
			State:          r.State,
			PreviousState:  r.PreviousState,
			AttemptedState: r.AttemptedState,
			At:             r.At.UTC(),
			Reason:         r.Reason,
			Context:        r.Context,
			Error:          r.Error,
			Rollback:       r.Rollback,
		}
	}
	return response
}
