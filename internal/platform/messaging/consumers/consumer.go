package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/wallet-ledger-engine/internal/config"
	"github.com/wallet-ledger-engine/internal/platform/messaging/producers"
)

const (
	defaultHandlerAttempts = 3
	defaultRetryBackoff    = 500 * time.Millisecond
)

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// MessageReader is the subset of kafka.Reader the consumer uses
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PermanentError marks a handler failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the consumer parks the message without retrying
func Permanent(err error) error {
	return &PermanentError{Err: err}
}

// KafkaConsumer implements Consumer using Kafka. A message whose handler keeps
// failing is sent to the DLQ and committed so the partition keeps moving.
type KafkaConsumer struct {
	reader          MessageReader
	dlq             producers.DeadLetterPublisher
	logger          *slog.Logger
	topic           string
	groupID         string
	handlerAttempts int
	retryBackoff    time.Duration
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig, dlq producers.DeadLetterPublisher) *KafkaConsumer {
	startOffset := cfg.StartOffset
	if startOffset == 0 {
		startOffset = kafka.FirstOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.BrokerList(),
		Topic:       cfg.NotificationTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: startOffset,
	})
	return newKafkaConsumer(reader, dlq, logger, cfg.NotificationTopic, cfg.ConsumerGroup)
}

func newKafkaConsumer(reader MessageReader, dlq producers.DeadLetterPublisher, logger *slog.Logger, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader:          reader,
		dlq:             dlq,
		logger:          logger,
		topic:           topic,
		groupID:         groupID,
		handlerAttempts: defaultHandlerAttempts,
		retryBackoff:    defaultRetryBackoff,
	}
}

// Subscribe starts consuming in the background until ctx is canceled
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic",
		"topic", c.topic,
		"group_id", c.groupID,
	)

	go c.consume(ctx, handler)
	return nil
}

func (c *KafkaConsumer) consume(ctx context.Context, handler MessageHandler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "group_id", c.groupID, "error", err)
			if !sleep(ctx, time.Second) {
				return
			}
			continue
		}

		c.logger.Debug("Received message from Kafka",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if !c.handle(ctx, msg, handler) {
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// handle runs handler with retries and parks the message in the DLQ when it
// keeps failing. It returns false only when ctx ended before the message was settled.
func (c *KafkaConsumer) handle(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	var err error
	for attempt := 1; attempt <= c.handlerAttempts; attempt++ {
		err = handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}

		var permanent *PermanentError
		if errors.As(err, &permanent) {
			break
		}

		c.logger.Warn("Handler failed, retrying",
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempt", attempt,
			"error", err,
		)
		if attempt < c.handlerAttempts && !sleep(ctx, c.retryBackoff*time.Duration(attempt)) {
			return false
		}
	}

	if ctx.Err() != nil {
		return false
	}

	c.logger.Error("Giving up on message",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
		"error", err,
	)
	if c.dlq == nil {
		return true
	}
	if dlqErr := c.dlq.PublishToDLQ(ctx, string(msg.Key), msg.Value, err.Error()); dlqErr != nil {
		c.logger.Error("Failed to park message in DLQ", "offset", msg.Offset, "error", dlqErr)
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
