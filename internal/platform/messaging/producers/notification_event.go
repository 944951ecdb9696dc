package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wallet-ledger-engine/internal/config"
)

// NotificationEventProducer publishes notification events for the dispatcher.
// Writes are synchronous so the outbox only marks a message processed once Kafka acknowledged it.
type NotificationEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

var _ MessagePublisher = (*NotificationEventProducer)(nil)

// NewNotificationEventProducer ensures the notification topic exists and returns a producer for it
func NewNotificationEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*NotificationEventProducer, error) {
	if cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("kafka notification topic is not configured")
	}

	if err := provisionTopic(ctx, cfg, cfg.NotificationTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure notification topic %s exists: %w", cfg.NotificationTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        cfg.NotificationTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return newNotificationEventProducer(logger, writer, cfg.NotificationTopic), nil
}

func newNotificationEventProducer(logger *slog.Logger, writer KafkaWriter, topic string) *NotificationEventProducer {
	return &NotificationEventProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Publish writes value as JSON under key. Events for one recipient share a key and stay ordered.
func (p *NotificationEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish notification event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish notification event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published notification event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *NotificationEventProducer) Close() error {
	p.logger.Info("Closing notification event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close notification kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
