package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// Transfer debits the sender and credits the receiver. Each leg names the
// other party as its causer.
//
// By default the legs commit separately: a failed credit after a committed
// debit returns *TransferIncompleteError. With AtomicTransfer both legs share
// one database transaction and both wallets are locked in canonical order.
func (e *Engine) Transfer(ctx context.Context, request *TransferRequest) (*TransferResult, error) {
	logger := e.requestLogger(ctx)

	if request.Sender.Ref.Equal(request.Receiver.Ref) {
		return nil, fmt.Errorf("%w: cannot transfer to the same wallet", shared.ErrNotAllowed)
	}

	fields := transaction.Fields{Comment: request.Comment}
	debit := operation{
		direction: shared.DirectionDebit,
		request: &LedgerRequest{
			Account:     request.Sender.Ref,
			Amount:      request.Amount,
			Causer:      request.Receiver,
			ServiceType: shared.ServiceTypeTransfer,
			Intent:      transaction.NewTransaction{Fields: fields},
		},
	}
	credit := operation{
		direction: shared.DirectionCredit,
		request: &LedgerRequest{
			Account:     request.Receiver.Ref,
			Amount:      request.Amount,
			Causer:      request.Sender,
			ServiceType: shared.ServiceTypeTransfer,
			Intent:      transaction.NewTransaction{Fields: fields},
		},
	}
	if err := validateLedgerRequest(debit.request); err != nil {
		return nil, err
	}
	if err := validateLedgerRequest(credit.request); err != nil {
		return nil, err
	}

	receiptURL, err := e.storeReceipt(ctx, request.Receipt)
	if err != nil {
		return nil, classify("transfer", err)
	}
	debit.receipt = receiptURL
	credit.receipt = receiptURL

	var result *TransferResult
	if e.cfg.AtomicTransfer {
		result, err = e.transferAtomic(ctx, debit, credit)
	} else {
		result, err = e.transferTwoStep(ctx, debit, credit)
	}
	if err != nil {
		e.discardReceipt(ctx, receiptURL)
		logger.Warn("Transfer failed",
			"sender", request.Sender.Ref.String(), "receiver", request.Receiver.Ref.String(),
			"amount", request.Amount.String(), "error", err,
		)
		return nil, err
	}

	logger.Info("Transfer committed",
		"debit_record_id", result.Debit.ID.String(), "credit_record_id", result.Credit.ID.String(),
		"amount", request.Amount.String(),
	)
	return result, nil
}

func (e *Engine) transferTwoStep(ctx context.Context, debit, credit operation) (*TransferResult, error) {
	result := &TransferResult{}

	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var applyErr error
		result.Debit, applyErr = e.applyInTx(ctx, tx, debit)
		return applyErr
	})
	if err != nil {
		return nil, classify("transfer", err)
	}

	err = e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var applyErr error
		result.Credit, applyErr = e.applyInTx(ctx, tx, credit)
		return applyErr
	})
	if err != nil {
		e.requestLogger(ctx).Error("Credit leg failed after debit committed",
			"debit_record_id", result.Debit.ID.String(), "receiver", credit.request.Account.String(), "error", err,
		)
		return nil, &TransferIncompleteError{DebitRecordID: result.Debit.ID, Err: classify("transfer", err)}
	}
	return result, nil
}

func (e *Engine) transferAtomic(ctx context.Context, debit, credit operation) (*TransferResult, error) {
	result := &TransferResult{}

	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		locked, err := e.lockInOrder(ctx, tx, debit.request.Account, credit.request.Account)
		if err != nil {
			return err
		}

		result.Debit, err = e.applyLocked(ctx, tx, locked[debit.request.Account], nil, debit)
		if err != nil {
			return err
		}
		result.Credit, err = e.applyLocked(ctx, tx, locked[credit.request.Account], nil, credit)
		return err
	})
	if err != nil {
		return nil, classify("transfer", err)
	}
	return result, nil
}

// lockInOrder locks every owner's wallet in EntityRef order so concurrent
// multi-wallet units cannot deadlock
func (e *Engine) lockInOrder(ctx context.Context, tx pgx.Tx, owners ...shared.EntityRef) (map[shared.EntityRef]*wallet.Wallet, error) {
	ordered := append([]shared.EntityRef(nil), owners...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	locked := make(map[shared.EntityRef]*wallet.Wallet, len(ordered))
	for _, owner := range ordered {
		w, err := e.wallets.Lock(ctx, tx, owner)
		if err != nil {
			return nil, err
		}
		locked[owner] = w
	}
	return locked, nil
}
