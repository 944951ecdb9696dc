package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// BankDestination freezes the payout target of a withdrawal at request time
type BankDestination struct {
	BankID        string `json:"bank_id" bson:"bank_id"`
	AccountName   string `json:"account_name" bson:"account_name"`
	AccountNumber string `json:"account_number" bson:"account_number"`
}

// Record is the audit entry for one balance change or pending request
type Record struct {
	ID              uuid.UUID                `json:"id"`
	Account         shared.EntityRef         `json:"account"`
	Causer          shared.EntityRef         `json:"causer"`
	CauserReference string                   `json:"causer_reference,omitempty"`
	Direction       shared.Direction         `json:"direction"`
	ServiceType     shared.ServiceType       `json:"service_type"`
	Status          shared.TransactionStatus `json:"status"`
	Amount          decimal.Decimal          `json:"amount"`
	Summary         string                   `json:"summary"`
	AdminNote       string                   `json:"admin_note,omitempty"`
	Receipt         string                   `json:"receipt,omitempty"`
	Comment         string                   `json:"comment,omitempty"`
	Bank            *BankDestination         `json:"bank,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// NewRecord builds a record for account. A zero status defaults to COMPLETED.
func NewRecord(
	account shared.EntityRef,
	causer shared.EntityRef,
	direction shared.Direction,
	serviceType shared.ServiceType,
	amount decimal.Decimal,
	status shared.TransactionStatus,
) (*Record, error) {
	if !shared.ValidAmount(amount) {
		return nil, shared.ErrInvalidAmount
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := causer.Validate(); err != nil {
		return nil, err
	}
	if serviceType == "" {
		serviceType = shared.ServiceTypeOther
	}
	if !serviceType.Valid() {
		return nil, fmt.Errorf("%w: unknown service type %q", shared.ErrNotAllowed, serviceType)
	}
	if status == "" {
		status = shared.TransactionStatusCompleted
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrNotAllowed, status)
	}

	now := time.Now().UTC()
	return &Record{
		ID:          uuid.New(),
		Account:     account,
		Causer:      causer,
		Direction:   direction,
		ServiceType: serviceType,
		Status:      status,
		Amount:      amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsPending reports whether the record awaits a decision
func (r *Record) IsPending() bool {
	return r.Status == shared.TransactionStatusPending
}

// TransitionTo moves a PENDING record to a terminal status.
// Every other move is rejected with ErrNotAllowed.
func (r *Record) TransitionTo(next shared.TransactionStatus) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("%w: transaction %s is already %s", shared.ErrNotAllowed, r.ID, r.Status)
	}
	if !next.IsTerminal() {
		return fmt.Errorf("%w: cannot move transaction %s from %s to %s", shared.ErrNotAllowed, r.ID, r.Status, next)
	}

	r.Status = next
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// CauserDetails rebuilds the record's causer with the display reference it was created with
func (r *Record) CauserDetails() Causer {
	return Causer{Ref: r.Causer, ReferenceCode: r.CauserReference}
}
