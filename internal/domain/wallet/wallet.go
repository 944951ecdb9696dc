package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// Wallet holds the balance of one polymorphic owner
type Wallet struct {
	ID        uuid.UUID        `json:"id"`
	Owner     shared.EntityRef `json:"owner"`
	Balance   decimal.Decimal  `json:"balance"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewWallet opens an empty wallet for owner
func NewWallet(owner shared.EntityRef) (*Wallet, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		Owner:     owner,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Credit adds amount to the balance
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !shared.ValidAmount(amount) {
		return shared.ErrInvalidAmount
	}

	w.Balance = w.Balance.Add(amount)
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts amount from the balance. A debit that leaves exactly zero is allowed.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !shared.ValidAmount(amount) {
		return shared.ErrInvalidAmount
	}

	if !w.Covers(amount) {
		return shared.ErrInsufficientFunds
	}

	w.Balance = w.Balance.Sub(amount)
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// Covers reports whether balance - amount >= 0
func (w *Wallet) Covers(amount decimal.Decimal) bool {
	return !w.Balance.Sub(amount).IsNegative()
}
