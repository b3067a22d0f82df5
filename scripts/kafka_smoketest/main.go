package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	infra_eventbus "github.com/amirasaad/walletledger/infra/eventbus"
	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/amirasaad/walletledger/pkg/eventbus"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// RunSmokeTest publishes one ledger envelope through the relay's publisher
// and reads it back from the configured topic.
func RunSmokeTest() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}
	brokers := cfg.Kafka.Brokers
	if brokers == "" {
		brokers = "localhost:9092"
	}
	groupID := strings.TrimSpace(os.Getenv("GROUP_ID"))
	if groupID == "" {
		groupID = "wallet-smoketest-" + uuid.NewString()[:8]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create the topic if it doesn't exist
	{
		dialer := &kafka.Dialer{Timeout: 5 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", strings.Split(brokers, ",")[0])
		if err != nil {
			logger.Error("dial failed", "error", err)
			return err
		}
		defer func() { _ = conn.Close() }()
		err = conn.CreateTopics(kafka.TopicConfig{
			Topic:             cfg.Kafka.Topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
			logger.Error("create topic failed", "topic", cfg.Kafka.Topic, "error", err)
			return err
		}
		logger.Info("topic ready", "topic", cfg.Kafka.Topic)
	}

	pub, err := infra_eventbus.NewKafkaPublisher(brokers, cfg.Kafka.Topic, logger)
	if err != nil {
		return err
	}
	defer func() { _ = pub.Close() }()

	sent := eventbus.Envelope{
		ID:        uuid.New(),
		Type:      "Ledger.SmokeTest",
		AccountID: uuid.New(),
		Payload:   json.RawMessage(`{"amount":"0.01"}`),
		CreatedAt: time.Now().UTC(),
	}
	if err := pub.Publish(ctx, sent); err != nil {
		logger.Error("publish failed", "error", err)
		return err
	}
	logger.Info("produced", "event_id", sent.ID)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     strings.Split(brokers, ","),
		GroupID:     groupID,
		Topic:       cfg.Kafka.Topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	defer func() { _ = r.Close() }()

	// earlier runs leave their envelopes on the topic
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			logger.Error("fetch failed", "error", err)
			return err
		}
		_ = r.CommitMessages(ctx, msg)

		var got eventbus.Envelope
		if err := json.Unmarshal(msg.Value, &got); err != nil {
			logger.Warn("skipping undecodable message", "offset", msg.Offset, "error", err)
			continue
		}
		if got.ID != sent.ID {
			continue
		}
		if string(msg.Key) != sent.AccountID.String() {
			return fmt.Errorf("message key %q, want account id %s", msg.Key, sent.AccountID)
		}
		logger.Info("consumed", "event_id", got.ID, "type", got.Type, "partition", msg.Partition)
		break
	}

	logger.Info("kafka smoke test passed")
	return nil
}

// main runs the smoke test and exits non-zero on failure.
func main() {
	if err := RunSmokeTest(); err != nil {
		os.Exit(1)
	}
}
