package producers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/doctor-smile-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

const (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// EnsureTopics dials the broker and creates every missing topic
func EnsureTopics(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig, topics ...string) error {
	dialer := &kafka.Dialer{Timeout: cfg.MaxWait}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if err := ensureTopic(ctx, conn, logger, topic, cfg.NumPartitions, cfg.ReplicationFactor, topicReadBackoff); err != nil {
			return err
		}
	}
	return nil
}

// ensureTopic creates topic unless its partitions can be read. Reads are
// retried because a broker that just started may not answer metadata yet.
func ensureTopic(ctx context.Context, admin topicAdmin, logger *slog.Logger, topic string, partitions, replication int, backoff time.Duration) error {
	var lastErr error
	for attempt := range topicReadAttempts {
		found, err := admin.ReadPartitions(topic)
		if err == nil && len(found) > 0 {
			logger.Info("Kafka topic already exists", "topic", topic, "partitions", len(found))
			return nil
		}
		lastErr = err
		if err == nil {
			break
		}
		logger.Warn("Failed to read topic partitions, retrying", "topic", topic, "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	logger.Info("Creating Kafka topic", "topic", topic, "last_read_error", lastErr)
	if err := admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     max(partitions, 1),
		ReplicationFactor: max(replication, 1),
	}); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	logger.Info("Created Kafka topic", "topic", topic)
	return nil
}
