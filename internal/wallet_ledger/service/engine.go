package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/bankaccount"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/receipt"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// EngineConfig holds the ledger settings the engine needs
type EngineConfig struct {
	Currency       string
	AtomicTransfer bool
}

// Engine applies balance changes, their records and their notifications as one unit
type Engine struct {
	db          TxRunner
	wallets     WalletManager
	records     transaction.Repository
	banks       bankaccount.Repository
	receipts    receipt.Storage
	notifier    Notifier
	adminEvents AdminEventEmitter
	cfg         EngineConfig
	logger      *slog.Logger
}

var _ Ledger = (*Engine)(nil)

func NewEngine(
	db TxRunner,
	wallets WalletManager,
	records transaction.Repository,
	banks bankaccount.Repository,
	receipts receipt.Storage,
	notifier Notifier,
	adminEvents AdminEventEmitter,
	cfg EngineConfig,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		db:          db,
		wallets:     wallets,
		records:     records,
		banks:       banks,
		receipts:    receipts,
		notifier:    notifier,
		adminEvents: adminEvents,
		cfg:         cfg,
		logger:      logger,
	}
}

// operation is one balance change applied inside an open transaction
type operation struct {
	direction shared.Direction
	request   *LedgerRequest
	receipt   string
}

// OpenWallet creates an empty wallet for owner
func (e *Engine) OpenWallet(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	w, err := e.wallets.Open(ctx, owner)
	if err != nil {
		return nil, classify("open wallet", err)
	}
	e.requestLogger(ctx).Info("Wallet opened", "owner", owner.String(), "wallet_id", w.ID.String())
	return w, nil
}

// Deposit credits request.Amount to the account wallet
func (e *Engine) Deposit(ctx context.Context, request *LedgerRequest) (*transaction.Record, error) {
	return e.run(ctx, "deposit", shared.DirectionCredit, request)
}

// Withdraw debits request.Amount from the account wallet. The balance may reach zero but never go below it.
func (e *Engine) Withdraw(ctx context.Context, request *LedgerRequest) (*transaction.Record, error) {
	return e.run(ctx, "withdraw", shared.DirectionDebit, request)
}

func (e *Engine) run(ctx context.Context, op string, direction shared.Direction, request *LedgerRequest) (*transaction.Record, error) {
	logger := e.requestLogger(ctx)

	if err := validateLedgerRequest(request); err != nil {
		return nil, err
	}

	receiptURL, err := e.storeReceipt(ctx, request.Receipt)
	if err != nil {
		return nil, classify(op, err)
	}

	var record *transaction.Record
	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var applyErr error
		record, applyErr = e.applyInTx(ctx, tx, operation{direction: direction, request: request, receipt: receiptURL})
		return applyErr
	})
	if err != nil {
		e.discardReceipt(ctx, receiptURL)
		logger.Warn("Ledger operation rolled back", "op", op, "account", request.Account.String(), "amount", request.Amount.String(), "error", err)
		return nil, classify(op, err)
	}

	logger.Info("Ledger operation committed",
		"op", op, "record_id", record.ID.String(), "account", record.Account.String(),
		"amount", record.Amount.String(), "status", record.Status,
	)
	return record, nil
}

// applyInTx locks the account wallet and then resolves the record under that lock
func (e *Engine) applyInTx(ctx context.Context, tx pgx.Tx, op operation) (*transaction.Record, error) {
	locked, err := e.wallets.Lock(ctx, tx, op.request.Account)
	if err != nil {
		return nil, err
	}

	var existing *transaction.Record
	if update, ok := op.request.Intent.(transaction.UpdateExisting); ok {
		existing, err = e.records.WithTx(tx).GetByID(ctx, update.RecordID)
		if err != nil {
			return nil, err
		}
		if !existing.Account.Equal(locked.Owner) {
			return nil, fmt.Errorf("%w: transaction %s does not belong to %s", shared.ErrNotAllowed, existing.ID, locked.Owner)
		}
		if existing.Direction != op.direction {
			return nil, fmt.Errorf("%w: transaction %s is a %s", shared.ErrNotAllowed, existing.ID, existing.Direction)
		}
	}

	return e.applyLocked(ctx, tx, locked, existing, op)
}

// applyLocked mutates the locked wallet, writes the record and queues the owner notification.
// existing is nil when a new record is created.
func (e *Engine) applyLocked(
	ctx context.Context,
	tx pgx.Tx,
	locked *wallet.Wallet,
	existing *transaction.Record,
	op operation,
) (*transaction.Record, error) {
	fields := transaction.IntentFields(op.request.Intent)
	if op.receipt != "" {
		fields.Receipt = op.receipt
	}
	causer := op.request.Causer

	record := existing
	if record == nil {
		var err error
		record, err = e.newRecord(locked.Owner, op, fields)
		if err != nil {
			return nil, err
		}
	} else {
		if err := completeExisting(record, fields); err != nil {
			return nil, err
		}
		// the original causer stays on the record
		if !record.Causer.Equal(causer.Ref) {
			causer = record.CauserDetails()
		}
	}

	if record.Status == shared.TransactionStatusCompleted {
		if err := e.wallets.Apply(ctx, tx, locked, record.Direction, record.Amount); err != nil {
			return nil, err
		}
	}

	record.Summary = transaction.RenderSummary(e.cfg.Currency, record.Direction, record.Amount, record.Status, causer, locked.Owner)

	recordsTx := e.records.WithTx(tx)
	if existing == nil {
		if err := recordsTx.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create transaction record: %w", err)
		}
	} else {
		if err := recordsTx.Update(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to update transaction record %s: %w", record.ID, err)
		}
	}

	n := notification.Notification{
		Kind:      notificationKind(record, existing != nil),
		Summary:   record.Summary,
		AdminNote: record.AdminNote,
	}
	if err := e.notifier.Notify(ctx, tx, record, n, op.request.Causer.Ref); err != nil {
		return nil, err
	}

	return record, nil
}

func (e *Engine) newRecord(owner shared.EntityRef, op operation, fields transaction.Fields) (*transaction.Record, error) {
	switch fields.Status {
	case "", shared.TransactionStatusCompleted, shared.TransactionStatusPending:
	default:
		return nil, fmt.Errorf("%w: a new transaction cannot start as %s", shared.ErrNotAllowed, fields.Status)
	}

	record, err := transaction.NewRecord(owner, op.request.Causer.Ref, op.direction, op.request.ServiceType, op.request.Amount, fields.Status)
	if err != nil {
		return nil, err
	}
	record.CauserReference = op.request.Causer.DisplayReference()
	record.AdminNote = fields.AdminNote
	record.Comment = fields.Comment
	record.Receipt = fields.Receipt
	record.Bank = fields.Bank
	return record, nil
}

// completeExisting moves a PENDING record to COMPLETED and merges the supplied fields
func completeExisting(record *transaction.Record, fields transaction.Fields) error {
	if fields.Status != "" && fields.Status != shared.TransactionStatusCompleted {
		return fmt.Errorf("%w: a ledger operation can only complete transaction %s", shared.ErrNotAllowed, record.ID)
	}
	if err := record.TransitionTo(shared.TransactionStatusCompleted); err != nil {
		return err
	}
	if fields.AdminNote != "" {
		record.AdminNote = fields.AdminNote
	}
	if fields.Comment != "" {
		record.Comment = fields.Comment
	}
	if fields.Receipt != "" {
		record.Receipt = fields.Receipt
	}
	return nil
}

func notificationKind(record *transaction.Record, updated bool) shared.NotificationKind {
	if record.Direction != shared.DirectionDebit {
		return shared.NotificationWalletUpdated
	}
	switch {
	case record.IsPending():
		return shared.NotificationWithdrawalRequested
	case updated:
		return shared.NotificationWithdrawalApproved
	}
	return shared.NotificationWalletUpdated
}

func validateLedgerRequest(request *LedgerRequest) error {
	if !shared.ValidAmount(request.Amount) {
		return shared.ErrInvalidAmount
	}
	if err := request.Account.Validate(); err != nil {
		return fmt.Errorf("account: %w", err)
	}
	if err := request.Causer.Ref.Validate(); err != nil {
		return fmt.Errorf("causer: %w", err)
	}
	return nil
}

// storeReceipt persists an optional upload before the atomic unit starts
func (e *Engine) storeReceipt(ctx context.Context, upload *receipt.Upload) (string, error) {
	if upload == nil {
		return "", nil
	}
	url, err := e.receipts.Store(ctx, upload)
	if err != nil {
		return "", fmt.Errorf("failed to store receipt: %w", err)
	}
	return url, nil
}

// discardReceipt removes a stored upload whose atomic unit did not commit
func (e *Engine) discardReceipt(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := e.receipts.Delete(context.WithoutCancel(ctx), url); err != nil {
		e.requestLogger(ctx).Error("Failed to delete orphaned receipt", "receipt", url, "error", err)
	}
}

func (e *Engine) requestLogger(ctx context.Context) *slog.Logger {
	if correlationID := shared.CorrelationIDFromContext(ctx); correlationID != "" {
		return e.logger.With("correlation_id", correlationID)
	}
	return e.logger
}
