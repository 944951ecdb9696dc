package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
)

// Notification is what the ledger asks to tell a wallet owner
type Notification struct {
	Kind      shared.NotificationKind `json:"kind"`
	Summary   string                  `json:"summary"`
	AdminNote string                  `json:"admin_note,omitempty"`
}

// Event is the envelope that travels through the outbox and Kafka
type Event struct {
	EventID       uuid.UUID               `json:"event_id"`
	Kind          shared.NotificationKind `json:"kind"`
	Audience      shared.Audience         `json:"audience"`
	Recipient     shared.EntityRef        `json:"recipient"`
	Summary       string                  `json:"summary"`
	AdminNote     string                  `json:"admin_note,omitempty"`
	Amount        decimal.Decimal         `json:"amount"`
	Actor         shared.EntityRef        `json:"actor"`
	Record        *transaction.Record     `json:"record,omitempty"`
	CorrelationID string                  `json:"correlation_id,omitempty"`
	OccurredAt    time.Time               `json:"occurred_at"`
}

// NewOwnerEvent addresses n to the owner of record
func NewOwnerEvent(n Notification, record *transaction.Record, actor shared.EntityRef, correlationID string) *Event {
	return &Event{
		EventID:       uuid.New(),
		Kind:          n.Kind,
		Audience:      shared.AudienceOwner,
		Recipient:     record.Account,
		Summary:       n.Summary,
		AdminNote:     n.AdminNote,
		Amount:        record.Amount,
		Actor:         actor,
		Record:        record,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewFundsRequestedEvent is the admin fan-out event for a new withdrawal request
func NewFundsRequestedEvent(record *transaction.Record, correlationID string) *Event {
	return &Event{
		EventID:       uuid.New(),
		Kind:          shared.NotificationFundsRequestedWithdrawal,
		Audience:      shared.AudienceAdmins,
		Recipient:     record.Account,
		Summary:       record.Summary,
		Amount:        record.Amount,
		Actor:         record.Causer,
		Record:        record,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
	}
}

// Message is one delivery to one destination
type Message struct {
	EventID     uuid.UUID
	Kind        shared.NotificationKind
	Destination shared.EntityRef
	Body        string
	AdminNote   string
}

// Sender delivers messages over a channel such as mail or push
type Sender interface {
	Send(ctx context.Context, message Message) error
}
