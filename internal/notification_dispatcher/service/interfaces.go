package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// DeliveryService delivers one notification event to everyone it addresses
type DeliveryService interface {
	Deliver(ctx context.Context, event *notification.Event) error
}

// Deduper claims a delivery so it happens at most once per destination
type Deduper interface {
	Claim(ctx context.Context, eventID uuid.UUID, destination shared.EntityRef) (bool, error)
	Release(ctx context.Context, eventID uuid.UUID, destination shared.EntityRef) error
}
