package kafkax

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// NewWriter returns a writer for topic, or nil when no brokers are configured.
func NewWriter(brokers, topic string) *kafka.Writer {
	list := SplitBrokers(brokers)
	if len(list) == 0 || topic == "" {
		return nil
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(list...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// NewEvent builds a message carrying the canonical event headers and the
// trace context of ctx.
func NewEvent(ctx context.Context, eventType string, key string, payload []byte) kafka.Message {
	headers := []kafka.Header{
		{Key: HeaderEventID, Value: []byte(uuid.NewString())},
		{Key: HeaderEventType, Value: []byte(eventType)},
	}
	return kafka.Message{
		Key:     []byte(key),
		Value:   payload,
		Headers: InjectTraceHeaders(ctx, headers),
		Time:    time.Now().UTC(),
	}
}
