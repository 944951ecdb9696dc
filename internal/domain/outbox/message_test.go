package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
)

func newTestRecord() *transaction.Record {
	return &transaction.Record{
		ID:          uuid.New(),
		Account:     shared.NewEntityRef("User", "1"),
		Causer:      shared.NewEntityRef("User", "1"),
		Direction:   shared.DirectionCredit,
		ServiceType: shared.ServiceTypeOther,
		Status:      shared.TransactionStatusCompleted,
		Amount:      decimal.RequireFromString("100.50"),
		Summary:     "NGN 100.50 was credited your wallet. Triggered by you",
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestNewMessage(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		record := newTestRecord()
		event := notification.NewOwnerEvent(notification.Notification{
			Kind:    shared.NotificationWalletUpdated,
			Summary: record.Summary,
		}, record, record.Causer, "corr-1")

		beforeCreation := time.Now()
		msg, err := NewMessage(event)
		afterCreation := time.Now()

		require.NoError(t, err)
		assert.Equal(t, event.EventID, msg.EventID)
		assert.Equal(t, record.ID, msg.RecordID)
		assert.Equal(t, shared.NotificationWalletUpdated, msg.Kind)
		assert.Equal(t, shared.OutboxStatusPending, msg.Status)
		assert.Equal(t, 0, msg.Attempts)
		assert.Nil(t, msg.LastAttemptAt)
		assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)

		var decoded notification.Event
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, "corr-1", decoded.CorrelationID)
	})
}

func TestMessage_GetEvent(t *testing.T) {
	record := newTestRecord()
	original := notification.NewFundsRequestedEvent(record, "")
	msg, err := NewMessage(original)
	require.NoError(t, err)

	decoded, err := msg.GetEvent()

	require.NoError(t, err)
	assert.Equal(t, original.EventID, decoded.EventID)
	assert.Equal(t, shared.AudienceAdmins, decoded.Audience)
	assert.True(t, original.Amount.Equal(decoded.Amount))
	require.NotNil(t, decoded.Record)
	assert.Equal(t, record.ID, decoded.Record.ID)
	assert.True(t, record.CreatedAt.Equal(decoded.Record.CreatedAt))

	_, err = (&Message{Payload: []byte("{")}).GetEvent()
	assert.Error(t, err)
}
