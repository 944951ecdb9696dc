package service

import (
	"errors"

	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/bankaccount"
	"github.com/wallet-ledger-engine/internal/domain/receipt"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

// TransferIncompleteError is returned when the debit leg of a two-step transfer
// committed and the credit leg did not. The debit is not reversed.
type TransferIncompleteError struct {
	DebitRecordID uuid.UUID
	Err           error
}

func (e *TransferIncompleteError) Error() string {
	return "transfer incomplete, debit " + e.DebitRecordID.String() + " committed: " + e.Err.Error()
}

func (e *TransferIncompleteError) Unwrap() error {
	return e.Err
}

// isDomainError reports whether err belongs to the ledger taxonomy and can be
// returned to callers unchanged
func isDomainError(err error) bool {
	var walletExists wallet.ErrWalletExists
	switch {
	case errors.Is(err, shared.ErrInsufficientFunds),
		errors.Is(err, shared.ErrNotAllowed),
		errors.Is(err, shared.ErrInvalidAmount),
		errors.Is(err, shared.ErrInvalidEntityRef),
		errors.Is(err, shared.LockTimeoutError{}),
		errors.Is(err, wallet.ErrWalletNotFound{}),
		errors.Is(err, transaction.ErrRecordNotFound{}),
		errors.Is(err, bankaccount.ErrBankAccountNotFound{}),
		errors.Is(err, receipt.ErrEmptyUpload),
		errors.As(err, &walletExists):
		return true
	}
	return false
}

// classify wraps storage failures so callers can tell them from rule violations
func classify(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	var persistenceErr *shared.PersistenceError
	if errors.As(err, &persistenceErr) {
		return err
	}
	return &shared.PersistenceError{Op: op, Err: err}
}
