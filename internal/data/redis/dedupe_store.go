package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

const deliveredPrefix = "notification:delivered:"

// DedupeStore remembers which notification deliveries already happened so
// redelivered Kafka messages are not sent twice
type DedupeStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewDedupeStore(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *DedupeStore {
	return &DedupeStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func deliveredKey(eventID uuid.UUID, destination shared.EntityRef) string {
	return deliveredPrefix + eventID.String() + ":" + destination.String()
}

// Claim marks the delivery of eventID to destination and reports whether this caller got the claim
func (s *DedupeStore) Claim(ctx context.Context, eventID uuid.UUID, destination shared.EntityRef) (bool, error) {
	claimed, err := s.client.SetNX(ctx, deliveredKey(eventID, destination), time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim event %s: %w", eventID, err)
	}
	if !claimed {
		s.logger.Debug("Delivery already claimed", "event_id", eventID.String(), "destination", destination.String())
	}
	return claimed, nil
}

// Release drops the claim so a failed delivery can be retried
func (s *DedupeStore) Release(ctx context.Context, eventID uuid.UUID, destination shared.EntityRef) error {
	if err := s.client.Del(ctx, deliveredKey(eventID, destination)).Err(); err != nil {
		return fmt.Errorf("failed to release event %s: %w", eventID, err)
	}
	return nil
}
