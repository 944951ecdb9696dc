package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wallet-ledger-engine/internal/config"
)

const topicLookupAttempts = 3

var topicLookupBackoff = time.Second

// provisionTopic connects to the first reachable broker and makes sure topic exists
func provisionTopic(ctx context.Context, cfg *config.KafkaConfig, topic string, logger *slog.Logger) error {
	conn, err := dialBroker(ctx, cfg.BrokerList())
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	return ensureTopic(ctx, conn, kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}, logger)
}

func dialBroker(ctx context.Context, brokers []string) (*kafka.Conn, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	var lastErr error
	for _, broker := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// ensureTopic creates the topic unless the cluster already reports partitions
// for it. Transient read errors are retried a few times before creating.
func ensureTopic(ctx context.Context, admin TopicAdmin, topic kafka.TopicConfig, logger *slog.Logger) error {
	if topic.NumPartitions <= 0 {
		topic.NumPartitions = 1
	}
	if topic.ReplicationFactor <= 0 {
		topic.ReplicationFactor = 1
	}

	var lookupErr error
	for attempt := 1; attempt <= topicLookupAttempts; attempt++ {
		partitions, err := admin.ReadPartitions(topic.Topic)
		if err == nil && len(partitions) > 0 {
			logger.Info("Kafka topic exists", "topic", topic.Topic, "partitions", len(partitions))
			return nil
		}
		lookupErr = err
		if err == nil || errors.Is(err, kafka.UnknownTopicOrPartition) {
			break
		}

		logger.Warn("Failed to read topic partitions", "topic", topic.Topic, "attempt", attempt, "error", err)
		if attempt == topicLookupAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(topicLookupBackoff):
		}
	}

	logger.Info("Creating Kafka topic",
		"topic", topic.Topic,
		"partitions", topic.NumPartitions,
		"replication_factor", topic.ReplicationFactor,
		"lookup_error", lookupErr,
	)
	if err := admin.CreateTopics(topic); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic.Topic, err)
	}
	return nil
}
