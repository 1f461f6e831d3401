package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafka_adapter "orderflow/internal/adapters/out/kafka"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessageWriter struct{ mock.Mock }

func (m *MockMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// written returns the single message passed to the last WriteMessages call.
func (m *MockMessageWriter) written(t *testing.T) kafka.Message {
	t.Helper()
	require.NotEmpty(t, m.Calls)
	msgs := m.Calls[len(m.Calls)-1].Arguments.Get(1).([]kafka.Message)
	require.Len(t, msgs, 1)
	return msgs[0]
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNotificationPublisher_Notify(t *testing.T) {
	t.Run("should key the message by order id", func(t *testing.T) {
		writer := new(MockMessageWriter)
		writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()
		orderID := kernel.NewUUID()

		err := kafka_adapter.NewNotificationPublisher(writer).Notify(t.Context(), orderID, order.Shipped)

		require.NoError(t, err)
		msg := writer.written(t)
		assert.Equal(t, orderID.String(), string(msg.Key))
		assert.Equal(t, kafka_adapter.MessageTypeNotification, header(msg, "message-type"))

		var payload kafka_adapter.NotificationMessage
		require.NoError(t, json.Unmarshal(msg.Value, &payload))
		assert.Equal(t, orderID.String(), payload.OrderID)
		assert.Equal(t, "Shipped", payload.Status)
		assert.Contains(t, payload.Message, "is now Shipped")
		assert.False(t, payload.SentAt.IsZero())
	})

	t.Run("should return writer errors", func(t *testing.T) {
		writer := new(MockMessageWriter)
		writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		err := kafka_adapter.NewNotificationPublisher(writer).Notify(t.Context(), kernel.NewUUID(), order.Shipped)

		require.ErrorContains(t, err, "broker down")
	})
}

func TestAnalyticsRecorder_Record(t *testing.T) {
	writer := new(MockMessageWriter)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()
	orderID := kernel.NewUUID()

	err := kafka_adapter.NewAnalyticsRecorder(writer).Record(t.Context(), orderID, order.Delivered, order.Refunded)

	require.NoError(t, err)
	var payload kafka_adapter.AnalyticsMessage
	require.NoError(t, json.Unmarshal(writer.written(t).Value, &payload))
	assert.Equal(t, "Delivered", payload.From)
	assert.Equal(t, "Refunded", payload.To)
	assert.True(t, payload.Terminal)
}

func TestEventForwarder_Handle(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	orderID := kernel.NewUUID()

	t.Run("should forward state changes", func(t *testing.T) {
		writer := new(MockMessageWriter)
		writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

		err := kafka_adapter.NewEventForwarder(writer).Handle(t.Context(), services.StateChanged{
			OrderID: orderID, From: order.Pending, To: order.Processing,
			Reason: "stock confirmed", Version: 2, Timestamp: at,
		})

		require.NoError(t, err)
		msg := writer.written(t)
		assert.Equal(t, services.EventStateChanged, header(msg, "message-type"))
		assert.JSONEq(t, `{
			"event": "order.state_changed",
			"order_id": "`+orderID.String()+`",
			"from": "Pending",
			"to": "Processing",
			"reason": "stock confirmed",
			"version": 2,
			"occurred_at": "2025-03-01T10:00:00Z"
		}`, string(msg.Value))
	})

	t.Run("should forward failed transitions", func(t *testing.T) {
		writer := new(MockMessageWriter)
		writer.On("WriteMessages", mock.Anything, mock.Anything).Return(nil).Once()

		err := kafka_adapter.NewEventForwarder(writer).Handle(t.Context(), services.TransitionFailed{
			OrderID: orderID, CurrentState: order.Pending, AttemptedState: order.Processing,
			Error: "out of stock", Timestamp: at,
		})

		require.NoError(t, err)
		var payload kafka_adapter.OrderEventMessage
		require.NoError(t, json.Unmarshal(writer.written(t).Value, &payload))
		assert.Equal(t, services.EventTransitionFailed, payload.Event)
		assert.Equal(t, "Processing", payload.AttemptedState)
		assert.Equal(t, "out of stock", payload.Error)
		assert.Empty(t, payload.To)
	})
}

func TestNewWriter(t *testing.T) {
	w := kafka_adapter.NewWriter([]string{"localhost:9092"}, "order-notifications")

	assert.Equal(t, "order-notifications", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
