package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/outbox"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

// OutboxNotifier writes notification events to the outbox in the caller's transaction
type OutboxNotifier struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

var (
	_ service.Notifier          = (*OutboxNotifier)(nil)
	_ service.AdminEventEmitter = (*OutboxNotifier)(nil)
)

func NewOutboxNotifier(outboxRepo outbox.Repository, logger *slog.Logger) *OutboxNotifier {
	return &OutboxNotifier{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// Notify queues n for the owner of record
func (n *OutboxNotifier) Notify(
	ctx context.Context,
	tx pgx.Tx,
	record *transaction.Record,
	note notification.Notification,
	actor shared.EntityRef,
) error {
	event := notification.NewOwnerEvent(note, record, actor, shared.CorrelationIDFromContext(ctx))
	return n.enqueue(ctx, tx, event)
}

// EmitFundsRequested queues the admin fan-out for a new withdrawal request
func (n *OutboxNotifier) EmitFundsRequested(ctx context.Context, tx pgx.Tx, record *transaction.Record) error {
	event := notification.NewFundsRequestedEvent(record, shared.CorrelationIDFromContext(ctx))
	return n.enqueue(ctx, tx, event)
}

func (n *OutboxNotifier) enqueue(ctx context.Context, tx pgx.Tx, event *notification.Event) error {
	msg, err := outbox.NewMessage(event)
	if err != nil {
		n.logger.Error("Failed to create outbox message", "event_id", event.EventID.String(), "error", err)
		return fmt.Errorf("failed to create outbox message for event %s: %w", event.EventID, err)
	}

	if err := n.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
		n.logger.Error("Failed to save outbox message", "event_id", event.EventID.String(), "error", err)
		return fmt.Errorf("failed to save outbox message for event %s: %w", event.EventID, err)
	}

	n.logger.Debug("Outbox message created", "event_id", event.EventID.String(), "kind", event.Kind, "audience", event.Audience)
	return nil
}
