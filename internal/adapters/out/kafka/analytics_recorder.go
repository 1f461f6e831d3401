package kafka

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// MessageTypeAnalytics is the message-type header of analytics messages.
const MessageTypeAnalytics = "order.transition_recorded"

// AnalyticsMessage is one committed transition for reporting.
type AnalyticsMessage struct {
	OrderID    string    `json:"order_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Terminal   bool      `json:"terminal"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AnalyticsRecorder implements ports.AnalyticsRecorder by producing to the analytics topic.
type AnalyticsRecorder struct {
	writer MessageWriter
	clock  func() time.Time
}

// NewAnalyticsRecorder creates a recorder writing through w.
func NewAnalyticsRecorder(w MessageWriter) *AnalyticsRecorder {
	return &AnalyticsRecorder{writer: w, clock: time.Now}
}

// Record produces one analytics message for the transition.
func (r *AnalyticsRecorder) Record(ctx context.Context, orderID kernel.UUID, from, to order.Status) error {
	return write(ctx, r.writer, orderID.String(), MessageTypeAnalytics, AnalyticsMessage{
		OrderID:    orderID.String(),
		From:       from.String(),
		To:         to.String(),
		Terminal:   to.IsTerminal(),
		RecordedAt: r.clock().UTC(),
	})
}
