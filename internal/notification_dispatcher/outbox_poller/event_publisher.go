package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/outbox"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/platform/messaging/producers"
)

// EventPublisher moves one outbox message to Kafka and the audit read model
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	auditRepo  audit.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	auditRepo audit.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		producer:   producer,
		logger:     logger,
	}
}

// Publish records the audit history step, publishes the event keyed by recipient
// and marks the message PROCESSED. Each step is idempotent, so a retry after a
// partial failure repeats nothing visible.
func (p *EventPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetEvent()
	if err != nil {
		p.logger.Error("Failed to decode notification event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to mark undecodable outbox message FAILED_TO_PUBLISH", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("decode payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if event.Record != nil {
		change := audit.StatusChange{
			EventID:    event.EventID,
			Kind:       event.Kind,
			Status:     event.Record.Status,
			Actor:      event.Actor,
			AdminNote:  event.AdminNote,
			OccurredAt: event.OccurredAt,
		}
		if err := p.auditRepo.Record(ctx, audit.NewEntry(event.Record), change); err != nil {
			logger.Error("Failed to record audit history", "record_id", event.Record.ID.String(), "event_id", event.EventID.String(), "error", err)
			return fmt.Errorf("failed to record audit history for event %s: %w", event.EventID, err)
		}
	}

	if err := p.producer.Publish(ctx, event.Recipient.String(), event); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.EventID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to mark outbox message PROCESSED", "outbox_id", message.ID, "event_id", event.EventID.String(), "error", err)
		return fmt.Errorf("event %s published, but failed to mark outbox %d as PROCESSED: %w", event.EventID, message.ID, err)
	}

	logger.Info("Outbox message published",
		"outbox_id", message.ID, "event_id", event.EventID.String(), "kind", event.Kind, "audience", event.Audience,
	)
	return nil
}
