// Package kafka publishes order notifications, analytics records and lifecycle events
// to Kafka topics. Every message is JSON and keyed by the order identifier so all
// messages of one order land on the same partition.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by the publishers.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewWriter creates a writer for topic. Messages are balanced by key.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
}

// headerMessageType names the payload type of a message.
const headerMessageType = "message-type"

func write(ctx context.Context, w MessageWriter, key, messageType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", messageType, err)
	}

	err = w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: headerMessageType, Value: []byte(messageType)}},
	})
	if err != nil {
		return fmt.Errorf("write %s message: %w", messageType, err)
	}
	return nil
}
