package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
)

// StatusChange is one step in a record's history
type StatusChange struct {
	EventID    uuid.UUID                `json:"event_id" bson:"event_id"`
	Kind       shared.NotificationKind  `json:"kind" bson:"kind"`
	Status     shared.TransactionStatus `json:"status" bson:"status"`
	Actor      shared.EntityRef         `json:"actor" bson:"actor"`
	AdminNote  string                   `json:"admin_note,omitempty" bson:"admin_note,omitempty"`
	OccurredAt time.Time                `json:"occurred_at" bson:"occurred_at"`
}

// Entry is the read-model copy of a transaction record kept in MongoDB
type Entry struct {
	RecordID    uuid.UUID                    `json:"record_id" bson:"record_id"`
	Account     shared.EntityRef             `json:"account" bson:"account"`
	Causer      shared.EntityRef             `json:"causer" bson:"causer"`
	Direction   shared.Direction             `json:"direction" bson:"direction"`
	ServiceType shared.ServiceType           `json:"service_type" bson:"service_type"`
	Status      shared.TransactionStatus     `json:"status" bson:"status"`
	Amount      string                       `json:"amount" bson:"amount"`
	Summary     string                       `json:"summary" bson:"summary"`
	Receipt     string                       `json:"receipt,omitempty" bson:"receipt,omitempty"`
	Bank        *transaction.BankDestination `json:"bank,omitempty" bson:"bank,omitempty"`
	CreatedAt   time.Time                    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at" bson:"updated_at"`
	History     []StatusChange               `json:"history" bson:"history"`
}

// NewEntry copies the mutable snapshot of record. History is appended separately.
func NewEntry(record *transaction.Record) *Entry {
	return &Entry{
		RecordID:    record.ID,
		Account:     record.Account,
		Causer:      record.Causer,
		Direction:   record.Direction,
		ServiceType: record.ServiceType,
		Status:      record.Status,
		Amount:      record.Amount.StringFixed(2),
		Summary:     record.Summary,
		Receipt:     record.Receipt,
		Bank:        record.Bank,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// AmountDecimal parses the stored amount
func (e *Entry) AmountDecimal() decimal.Decimal {
	d, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Repository manages the audit read model
type Repository interface {
	// Record upserts the snapshot and appends change unless its event id is already in the history
	Record(ctx context.Context, entry *Entry, change StatusChange) error
	GetByRecordID(ctx context.Context, recordID uuid.UUID) (*Entry, error)
	GetByAccount(ctx context.Context, account shared.EntityRef, limit, offset int) ([]*Entry, error)
	CountByAccount(ctx context.Context, account shared.EntityRef) (int64, error)
}

// ErrEntryNotFound indicates missing audit entry
type ErrEntryNotFound struct {
	RecordID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "audit entry not found: " + e.RecordID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.RecordID == uuid.Nil {
		return true
	}
	return e.RecordID == t.RecordID
}
