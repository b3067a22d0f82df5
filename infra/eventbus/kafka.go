package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/walletledger/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes ledger events to a single Kafka topic, keyed by
// account id so that one account's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

var _ eventbus.Publisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a publisher.
// brokers: Comma-separated brokers list (e.g. "localhost:9092,localhost:9093").
func NewKafkaPublisher(brokers, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	parsedBrokers := parseBrokers(brokers)
	if len(parsedBrokers) == 0 {
		return nil, fmt.Errorf("kafka publisher: brokers are required")
	}
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("kafka publisher: topic is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsedBrokers...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
	}
	logger.Info("🚀 Kafka publisher initialized", "brokers", parsedBrokers, "topic", topic)
	return newKafkaPublisher(writer, topic, logger), nil
}

func newKafkaPublisher(w messageWriter, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, logger: logger.With("bus", "kafka")}
}

// Publish writes all envelopes in one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, envs ...eventbus.Envelope) error {
	if len(envs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(envs))
	for _, env := range envs {
		value, err := json.Marshal(env)
		if err != nil {
			return fmt.Errorf("kafka publisher: envelope marshal failed: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(env.AccountID.String()),
			Value: value,
			Time:  env.CreatedAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(env.Type)},
				{Key: "event_id", Value: []byte(env.ID.String())},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("failed to publish events", "topic", p.topic, "count", len(msgs), "error", err)
		return fmt.Errorf("kafka publisher: write failed: %w", err)
	}
	p.logger.Debug("events published", "topic", p.topic, "count", len(msgs))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
