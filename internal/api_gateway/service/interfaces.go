package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// WalletService reads wallets
type WalletService interface {
	// GetWallet returns ErrWalletNotFound if owner has no wallet
	GetWallet(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error)
}

// TransactionService reads transaction records and their audit history
type TransactionService interface {
	// ListTransactions returns one page of owner's records, newest first, and the total count.
	// An empty status lists every status.
	ListTransactions(ctx context.Context, owner shared.EntityRef, status shared.TransactionStatus, page, perPage int) ([]*transaction.Record, int64, error)

	// GetAudit returns the audit entry of one record.
	// Returns ErrEntryNotFound until the dispatcher has projected the record.
	GetAudit(ctx context.Context, recordID uuid.UUID) (*audit.Entry, error)

	// GetHistory returns one page of owner's audit entries and the total count
	GetHistory(ctx context.Context, owner shared.EntityRef, page, perPage int) ([]*audit.Entry, int64, error)
}
