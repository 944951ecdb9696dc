package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/notification_dispatcher/service"
	"github.com/wallet-ledger-engine/internal/platform/messaging/consumers"
)

var errMissingEventID = errors.New("notification event has no event_id")

// NotificationEventHandler handles notification events read from Kafka
type NotificationEventHandler struct {
	deliveryService service.DeliveryService
	logger          *slog.Logger
}

func NewNotificationEventHandler(logger *slog.Logger, deliveryService service.DeliveryService) *NotificationEventHandler {
	return &NotificationEventHandler{
		deliveryService: deliveryService,
		logger:          logger,
	}
}

// HandleMessage decodes one event and delivers it. Undecodable events are
// returned as permanent failures so the consumer parks them without retrying.
func (h *NotificationEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event notification.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("Failed to unmarshal notification event from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		return consumers.Permanent(fmt.Errorf("failed to unmarshal message value: %w", err))
	}
	if event.EventID == uuid.Nil {
		h.logger.Error("Notification event has no id", "message_key", string(key))
		return consumers.Permanent(errMissingEventID)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received notification event",
		"event_id", event.EventID.String(),
		"kind", event.Kind,
		"audience", event.Audience,
		"recipient", event.Recipient.String(),
	)

	if err := h.deliveryService.Deliver(ctx, &event); err != nil {
		logger.Error("Failed to deliver notification event",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("delivering event %s failed: %w", event.EventID.String(), err)
	}

	return nil
}
