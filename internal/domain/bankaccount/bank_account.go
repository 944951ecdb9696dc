package bankaccount

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
)

// BankAccount is a payout destination registered by a wallet owner
type BankAccount struct {
	ID            uuid.UUID
	Owner         shared.EntityRef
	BankID        string
	AccountName   string
	AccountNumber string
}

// Destination snapshots the fields a withdrawal record keeps
func (b *BankAccount) Destination() *transaction.BankDestination {
	return &transaction.BankDestination{
		BankID:        b.BankID,
		AccountName:   b.AccountName,
		AccountNumber: b.AccountNumber,
	}
}

// Repository reads bank accounts. Management of the list lives outside the ledger.
type Repository interface {
	GetForOwner(ctx context.Context, owner shared.EntityRef, id uuid.UUID) (*BankAccount, error)
}

// ErrBankAccountNotFound indicates the bank account does not exist for the owner
type ErrBankAccountNotFound struct {
	ID uuid.UUID
}

func (e ErrBankAccountNotFound) Error() string {
	return "bank account not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrBankAccountNotFound
func (e ErrBankAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrBankAccountNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
