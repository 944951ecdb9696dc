package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// RequestWithdrawal records a PENDING payout to one of the owner's bank accounts.
// The balance is checked under the wallet lock but not changed until approval.
func (e *Engine) RequestWithdrawal(ctx context.Context, request *WithdrawalRequest) (*transaction.Record, error) {
	logger := e.requestLogger(ctx)

	ledgerRequest := &LedgerRequest{
		Account:     request.Account,
		Amount:      request.Amount,
		Causer:      request.Causer,
		ServiceType: shared.ServiceTypeWithdrawal,
	}
	if err := validateLedgerRequest(ledgerRequest); err != nil {
		return nil, err
	}

	bank, err := e.banks.GetForOwner(ctx, request.Account, request.BankAccountID)
	if err != nil {
		return nil, classify("request withdrawal", err)
	}

	ledgerRequest.Intent = transaction.NewTransaction{Fields: transaction.Fields{
		Status:  shared.TransactionStatusPending,
		Comment: request.Comment,
		Bank:    bank.Destination(),
	}}

	var record *transaction.Record
	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		locked, lockErr := e.wallets.Lock(ctx, tx, request.Account)
		if lockErr != nil {
			return lockErr
		}
		if !locked.Covers(request.Amount) {
			return shared.ErrInsufficientFunds
		}

		var applyErr error
		record, applyErr = e.applyLocked(ctx, tx, locked, nil, operation{direction: shared.DirectionDebit, request: ledgerRequest})
		if applyErr != nil {
			return applyErr
		}
		return e.adminEvents.EmitFundsRequested(ctx, tx, record)
	})
	if err != nil {
		logger.Warn("Withdrawal request rejected", "account", request.Account.String(), "amount", request.Amount.String(), "error", err)
		return nil, classify("request withdrawal", err)
	}

	logger.Info("Withdrawal requested", "record_id", record.ID.String(), "account", record.Account.String(), "amount", record.Amount.String())
	return record, nil
}

// Approve completes a PENDING record and applies its balance effect. A debit
// the balance no longer covers is cancelled instead; the cancelled record is
// returned together with an ErrNotAllowed error.
func (e *Engine) Approve(ctx context.Context, recordID uuid.UUID, review *ReviewRequest) (*transaction.Record, error) {
	logger := e.requestLogger(ctx).With("record_id", recordID.String())

	if err := review.Reviewer.Ref.Validate(); err != nil {
		return nil, fmt.Errorf("reviewer: %w", err)
	}

	receiptURL, err := e.storeReceipt(ctx, review.Receipt)
	if err != nil {
		return nil, classify("approve", err)
	}

	var record *transaction.Record
	var cancelled bool
	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		locked, pending, lockErr := e.lockRecord(ctx, tx, recordID)
		if lockErr != nil {
			return lockErr
		}
		if !pending.IsPending() {
			return fmt.Errorf("%w: transaction %s is already %s", shared.ErrNotAllowed, pending.ID, pending.Status)
		}

		if pending.Direction == shared.DirectionDebit && !locked.Covers(pending.Amount) {
			cancelled = true
			record = pending
			return e.finalize(ctx, tx, pending, shared.TransactionStatusCancelled, "", review.Reviewer.Ref)
		}

		op := operation{
			direction: pending.Direction,
			request: &LedgerRequest{
				Account:     pending.Account,
				Amount:      pending.Amount,
				Causer:      review.Reviewer,
				ServiceType: pending.ServiceType,
				Intent: transaction.UpdateExisting{
					RecordID: pending.ID,
					Fields: transaction.Fields{
						Status:    shared.TransactionStatusCompleted,
						AdminNote: review.AdminNote,
					},
				},
			},
			receipt: receiptURL,
		}
		var applyErr error
		record, applyErr = e.applyLocked(ctx, tx, locked, pending, op)
		return applyErr
	})
	if err != nil || cancelled {
		e.discardReceipt(ctx, receiptURL)
	}
	if err != nil {
		logger.Warn("Approval rolled back", "error", err)
		return nil, classify("approve", err)
	}
	if cancelled {
		logger.Warn("Pending debit no longer covered by balance, cancelled", "amount", record.Amount.String())
		return record, fmt.Errorf("%w: transaction %s was cancelled because the balance no longer covers it", shared.ErrNotAllowed, record.ID)
	}

	logger.Info("Transaction approved", "account", record.Account.String(), "amount", record.Amount.String())
	return record, nil
}

// Decline closes a PENDING record without touching the balance
func (e *Engine) Decline(ctx context.Context, recordID uuid.UUID, review *ReviewRequest) (*transaction.Record, error) {
	logger := e.requestLogger(ctx).With("record_id", recordID.String())

	if err := review.Reviewer.Ref.Validate(); err != nil {
		return nil, fmt.Errorf("reviewer: %w", err)
	}

	var record *transaction.Record
	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		_, pending, lockErr := e.lockRecord(ctx, tx, recordID)
		if lockErr != nil {
			return lockErr
		}
		record = pending
		return e.finalize(ctx, tx, pending, shared.TransactionStatusDeclined, review.AdminNote, review.Reviewer.Ref)
	})
	if err != nil {
		logger.Warn("Decline rejected", "error", err)
		return nil, classify("decline", err)
	}

	logger.Info("Transaction declined", "account", record.Account.String())
	return record, nil
}

// Validate cancels a PENDING debit the balance no longer covers. Any other
// record is returned unchanged.
func (e *Engine) Validate(ctx context.Context, recordID uuid.UUID) (*transaction.Record, error) {
	record, err := e.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, classify("validate", err)
	}
	if !record.IsPending() || record.Direction != shared.DirectionDebit {
		return record, nil
	}

	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		locked, pending, lockErr := e.lockRecord(ctx, tx, recordID)
		if lockErr != nil {
			return lockErr
		}
		record = pending
		if !pending.IsPending() || locked.Covers(pending.Amount) {
			return nil
		}
		return e.finalize(ctx, tx, pending, shared.TransactionStatusCancelled, "", locked.Owner)
	})
	if err != nil {
		return nil, classify("validate", err)
	}

	if record.Status == shared.TransactionStatusCancelled {
		e.requestLogger(ctx).Info("Pending withdrawal cancelled on validation", "record_id", record.ID.String())
	}
	return record, nil
}

// lockRecord takes the lock on the wallet owning recordID and re-reads the
// record under it
func (e *Engine) lockRecord(ctx context.Context, tx pgx.Tx, recordID uuid.UUID) (*wallet.Wallet, *transaction.Record, error) {
	recordsTx := e.records.WithTx(tx)

	unlocked, err := recordsTx.GetByID(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	locked, err := e.wallets.Lock(ctx, tx, unlocked.Account)
	if err != nil {
		return nil, nil, err
	}
	record, err := recordsTx.GetByID(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	return locked, record, nil
}

// finalize moves record to a terminal status other than COMPLETED. The summary is kept.
func (e *Engine) finalize(
	ctx context.Context,
	tx pgx.Tx,
	record *transaction.Record,
	status shared.TransactionStatus,
	adminNote string,
	actor shared.EntityRef,
) error {
	if err := record.TransitionTo(status); err != nil {
		return err
	}
	if adminNote != "" {
		record.AdminNote = adminNote
	}
	if err := e.records.WithTx(tx).Update(ctx, record); err != nil {
		return fmt.Errorf("failed to update transaction record %s: %w", record.ID, err)
	}

	kind := shared.NotificationWithdrawalDeclined
	if status == shared.TransactionStatusCancelled {
		kind = shared.NotificationWithdrawalCancelled
	}
	n := notification.Notification{Kind: kind, Summary: record.Summary, AdminNote: record.AdminNote}
	return e.notifier.Notify(ctx, tx, record, n, actor)
}
