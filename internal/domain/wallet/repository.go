package wallet

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// Repository defines wallet persistence operations
type Repository interface {
	Create(ctx context.Context, wallet *Wallet) error
	GetByOwner(ctx context.Context, owner shared.EntityRef) (*Wallet, error)

	// LockForUpdate acquires the row lock and returns the balance as seen under it
	LockForUpdate(ctx context.Context, owner shared.EntityRef) (*Wallet, error)
	UpdateBalance(ctx context.Context, wallet *Wallet) error
	WithTx(tx pgx.Tx) Repository
}

// ErrWalletNotFound indicates missing wallet
type ErrWalletNotFound struct {
	Owner shared.EntityRef
}

func (e ErrWalletNotFound) Error() string {
	return "wallet not found: " + e.Owner.String()
}

// Is implements the errors.Is interface for ErrWalletNotFound
func (e ErrWalletNotFound) Is(target error) bool {
	t, ok := target.(ErrWalletNotFound)
	if !ok {
		return false
	}
	// An empty owner matches any ErrWalletNotFound
	if t.Owner.IsZero() {
		return true
	}
	return e.Owner.Equal(t.Owner)
}

// ErrWalletExists indicates owner uniqueness violation
type ErrWalletExists struct {
	Owner shared.EntityRef
}

func (e ErrWalletExists) Error() string {
	return "wallet already exists: " + e.Owner.String()
}
