package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/receipt"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// Ledger is the write side of the wallet ledger
type Ledger interface {
	OpenWallet(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error)
	Deposit(ctx context.Context, request *LedgerRequest) (*transaction.Record, error)
	Withdraw(ctx context.Context, request *LedgerRequest) (*transaction.Record, error)
	Transfer(ctx context.Context, request *TransferRequest) (*TransferResult, error)
	RequestWithdrawal(ctx context.Context, request *WithdrawalRequest) (*transaction.Record, error)
	Approve(ctx context.Context, recordID uuid.UUID, review *ReviewRequest) (*transaction.Record, error)
	Decline(ctx context.Context, recordID uuid.UUID, review *ReviewRequest) (*transaction.Record, error)
	Validate(ctx context.Context, recordID uuid.UUID) (*transaction.Record, error)
}

// TxRunner runs fn inside a single database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// WalletManager performs balance changes on wallets locked inside tx
type WalletManager interface {
	Open(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error)
	Lock(ctx context.Context, tx pgx.Tx, owner shared.EntityRef) (*wallet.Wallet, error)
	Apply(ctx context.Context, tx pgx.Tx, locked *wallet.Wallet, direction shared.Direction, amount decimal.Decimal) error
}

// Notifier queues an owner notification inside tx
type Notifier interface {
	Notify(ctx context.Context, tx pgx.Tx, record *transaction.Record, n notification.Notification, actor shared.EntityRef) error
}

// AdminEventEmitter queues the admin fan-out for a new withdrawal request inside tx
type AdminEventEmitter interface {
	EmitFundsRequested(ctx context.Context, tx pgx.Tx, record *transaction.Record) error
}

// LedgerRequest is one deposit or withdrawal
type LedgerRequest struct {
	Account     shared.EntityRef
	Amount      decimal.Decimal
	Causer      transaction.Causer
	ServiceType shared.ServiceType
	// Intent defaults to a new completed record when nil
	Intent  transaction.Intent
	Receipt *receipt.Upload
}

// TransferRequest moves Amount from Sender's wallet to Receiver's wallet
type TransferRequest struct {
	Sender   transaction.Causer
	Receiver transaction.Causer
	Amount   decimal.Decimal
	Comment  string
	Receipt  *receipt.Upload
}

// TransferResult holds both legs of a transfer
type TransferResult struct {
	Debit  *transaction.Record
	Credit *transaction.Record
}

// WithdrawalRequest asks for a payout to one of the owner's bank accounts
type WithdrawalRequest struct {
	Account       shared.EntityRef
	Amount        decimal.Decimal
	Causer        transaction.Causer
	BankAccountID uuid.UUID
	Comment       string
}

// ReviewRequest carries an admin decision on a pending record
type ReviewRequest struct {
	Reviewer  transaction.Causer
	AdminNote string
	Receipt   *receipt.Upload
}
