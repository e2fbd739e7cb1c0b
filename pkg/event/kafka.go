package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shashiranjanraj/souq/pkg/logger"
)

// MessageWriter is the subset of *kafka.Writer the forwarder needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaBatchTimeout bounds how long a write waits for its batch to fill.
// Events are published on the request path one at a time, so the writer's
// one-second default would add a second to every request that fires one.
const KafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaWriter returns a writer that waits for the partition leader only.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: KafkaBatchTimeout,
	}
}

// KafkaForwarder publishes event payloads as JSON messages. Publishing is
// best-effort: failures are logged and never reach the code that fired the
// event.
type KafkaForwarder struct {
	w       MessageWriter
	timeout time.Duration
	now     func() time.Time
}

func NewKafkaForwarder(w MessageWriter, timeout time.Duration) *KafkaForwarder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KafkaForwarder{w: w, timeout: timeout, now: time.Now}
}

// Handler returns a listener that forwards each payload, keyed by key(payload)
// so events about one entity land on one partition.
func (f *KafkaForwarder) Handler(key func(payload any) string) Handler {
	return func(ctx context.Context, payload any) {
		value, err := json.Marshal(payload)
		if err != nil {
			logger.WithCtx(ctx).Error("event: marshal payload", "error", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
		defer cancel()

		msg := kafka.Message{Key: []byte(key(payload)), Value: value, Time: f.now()}
		if err := f.w.WriteMessages(ctx, msg); err != nil {
			logger.WithCtx(ctx).Warn("event: kafka publish failed", "key", string(msg.Key), "error", err)
		}
	}
}

func (f *KafkaForwarder) Close() error { return f.w.Close() }
