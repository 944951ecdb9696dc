package outbox_poller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/outbox"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
)

var (
	owner = shared.NewEntityRef("User", "7")
	admin = shared.NewEntityRef("Admin", "1")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func approvedMessage(t *testing.T) (*outbox.Message, *notification.Event) {
	t.Helper()
	rec, err := transaction.NewRecord(owner, owner, shared.DirectionDebit, shared.ServiceTypeWithdrawal, decimal.NewFromInt(200), "")
	require.NoError(t, err)
	rec.Summary = "NGN 200.00 was debited your wallet. Triggered by you"

	event := notification.NewOwnerEvent(notification.Notification{
		Kind:      shared.NotificationWithdrawalApproved,
		Summary:   rec.Summary,
		AdminNote: "paid",
	}, rec, admin, "corr-1")
	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)
	msg.ID = 11
	return msg, event
}

func TestEventPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("records audit, publishes and marks processed", func(t *testing.T) {
		outboxRepo := &MockOutboxRepo{}
		auditRepo := &MockAuditRepo{}
		producer := &MockProducer{}
		publisher := NewEventPublisher(outboxRepo, auditRepo, producer, discardLogger())
		msg, event := approvedMessage(t)

		auditRepo.On("Record", mock.Anything,
			mock.MatchedBy(func(e *audit.Entry) bool {
				return e.RecordID == event.Record.ID && e.Amount == "200.00"
			}),
			mock.MatchedBy(func(c audit.StatusChange) bool {
				return c.EventID == event.EventID && c.Actor == admin && c.AdminNote == "paid" &&
					c.Status == shared.TransactionStatusCompleted
			}),
		).Return(nil).Once()
		producer.On("Publish", mock.Anything, "User:7", mock.MatchedBy(func(e *notification.Event) bool {
			return e.EventID == event.EventID && e.Kind == shared.NotificationWithdrawalApproved
		})).Return(nil).Once()
		outboxRepo.On("UpdateStatus", mock.Anything, int64(11), shared.OutboxStatusProcessed).Return(nil).Once()

		require.NoError(t, publisher.Publish(ctx, msg))

		auditRepo.AssertExpectations(t)
		producer.AssertExpectations(t)
		outboxRepo.AssertExpectations(t)
	})

	t.Run("undecodable payload is marked failed", func(t *testing.T) {
		outboxRepo := &MockOutboxRepo{}
		publisher := NewEventPublisher(outboxRepo, &MockAuditRepo{}, &MockProducer{}, discardLogger())
		msg := &outbox.Message{ID: 4, Payload: []byte("{not json")}

		outboxRepo.On("UpdateStatus", mock.Anything, int64(4), shared.OutboxStatusFailedToPublish).Return(nil).Once()

		err := publisher.Publish(ctx, msg)

		assert.ErrorContains(t, err, "decode payload for outbox 4 failed")
		outboxRepo.AssertExpectations(t)
	})

	t.Run("audit failure stops before kafka", func(t *testing.T) {
		auditRepo := &MockAuditRepo{}
		producer := &MockProducer{}
		publisher := NewEventPublisher(&MockOutboxRepo{}, auditRepo, producer, discardLogger())
		msg, _ := approvedMessage(t)

		auditRepo.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("mongo down")).Once()

		err := publisher.Publish(ctx, msg)

		assert.ErrorContains(t, err, "failed to record audit history")
		producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("kafka failure leaves message pending", func(t *testing.T) {
		outboxRepo := &MockOutboxRepo{}
		auditRepo := &MockAuditRepo{}
		producer := &MockProducer{}
		publisher := NewEventPublisher(outboxRepo, auditRepo, producer, discardLogger())
		msg, _ := approvedMessage(t)

		auditRepo.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		producer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

		err := publisher.Publish(ctx, msg)

		assert.ErrorContains(t, err, "broker down")
		outboxRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}
