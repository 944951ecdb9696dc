package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// DeliveryServiceImpl fans an event out to its destinations and sends each message once
type DeliveryServiceImpl struct {
	dedupe Deduper
	sender notification.Sender
	admins []shared.EntityRef
	logger *slog.Logger
}

func NewDeliveryService(
	dedupe Deduper,
	sender notification.Sender,
	admins []shared.EntityRef,
	logger *slog.Logger,
) DeliveryService {
	return &DeliveryServiceImpl{
		dedupe: dedupe,
		sender: sender,
		admins: admins,
		logger: logger,
	}
}

// Deliver sends every message of event. Destinations already served by an
// earlier attempt are skipped, so a redelivered event only retries what failed.
func (s *DeliveryServiceImpl) Deliver(ctx context.Context, event *notification.Event) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	messages := s.fanOut(event)
	if len(messages) == 0 {
		logger.Warn("Event has no destinations", "event_id", event.EventID.String(), "audience", event.Audience)
		return nil
	}

	for _, msg := range messages {
		claimed, err := s.dedupe.Claim(ctx, msg.EventID, msg.Destination)
		if err != nil {
			return err
		}
		if !claimed {
			logger.Info("Skipping duplicate delivery", "event_id", msg.EventID.String(), "destination", msg.Destination.String())
			continue
		}

		if err := s.sender.Send(ctx, msg); err != nil {
			if releaseErr := s.dedupe.Release(ctx, msg.EventID, msg.Destination); releaseErr != nil {
				logger.Error("Failed to release delivery claim", "event_id", msg.EventID.String(), "error", releaseErr)
			}
			return fmt.Errorf("failed to deliver event %s to %s: %w", msg.EventID, msg.Destination, err)
		}

		logger.Info("Notification delivered",
			"event_id", msg.EventID.String(), "kind", msg.Kind, "destination", msg.Destination.String(),
		)
	}
	return nil
}

func (s *DeliveryServiceImpl) fanOut(event *notification.Event) []notification.Message {
	switch event.Audience {
	case shared.AudienceAdmins:
		messages := make([]notification.Message, 0, len(s.admins))
		for _, admin := range s.admins {
			messages = append(messages, notification.Message{
				EventID:     event.EventID,
				Kind:        event.Kind,
				Destination: admin,
				Body:        fmt.Sprintf("Withdrawal of %s requested by %s: %s", event.Amount.StringFixed(2), event.Recipient, event.Summary),
			})
		}
		return messages
	default:
		return []notification.Message{{
			EventID:     event.EventID,
			Kind:        event.Kind,
			Destination: event.Recipient,
			Body:        event.Summary,
			AdminNote:   event.AdminNote,
		}}
	}
}
