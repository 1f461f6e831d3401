package kafka

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// MessageTypeNotification is the message-type header of notification messages.
const MessageTypeNotification = "order.notification"

// NotificationMessage asks the notification service to inform the order owner.
type NotificationMessage struct {
	OrderID string    `json:"order_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// NotificationPublisher implements ports.NotificationService by producing to the
// notification topic.
type NotificationPublisher struct {
	writer MessageWriter
	clock  func() time.Time
}

// NewNotificationPublisher creates a publisher writing through w.
func NewNotificationPublisher(w MessageWriter) *NotificationPublisher {
	return &NotificationPublisher{writer: w, clock: time.Now}
}

// Notify produces one notification message for the order.
func (p *NotificationPublisher) Notify(ctx context.Context, orderID kernel.UUID, status order.Status) error {
	return write(ctx, p.writer, orderID.String(), MessageTypeNotification, NotificationMessage{
		OrderID: orderID.String(),
		Status:  status.String(),
		Message: "Your order " + orderID.String() + " is now " + status.String(),
		SentAt:  p.clock().UTC(),
	})
}
