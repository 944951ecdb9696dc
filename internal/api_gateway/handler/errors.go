package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/bankaccount"
	"github.com/wallet-ledger-engine/internal/domain/receipt"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
	ledger "github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

const lockRetryAfterSeconds = "1"

// respondError maps a ledger error to its HTTP status
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var incomplete *ledger.TransferIncompleteError
	var walletExists wallet.ErrWalletExists

	switch {
	case errors.As(err, &incomplete):
		logger.Error("Transfer left incomplete", "debit_record_id", incomplete.DebitRecordID.String(), "error", err)
		RespondWithDataAndError(c, http.StatusInternalServerError,
			gin.H{"debit_record_id": incomplete.DebitRecordID.String()},
			"TRANSFER_INCOMPLETE", "debit committed but credit failed")
	case errors.Is(err, shared.ErrInvalidAmount),
		errors.Is(err, shared.ErrInvalidEntityRef),
		errors.Is(err, receipt.ErrEmptyUpload):
		RespondBadRequest(c, err.Error())
	case errors.Is(err, wallet.ErrWalletNotFound{}),
		errors.Is(err, transaction.ErrRecordNotFound{}),
		errors.Is(err, bankaccount.ErrBankAccountNotFound{}),
		errors.Is(err, audit.ErrEntryNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.As(err, &walletExists):
		RespondConflict(c, err.Error())
	case errors.Is(err, shared.ErrNotAllowed):
		RespondConflict(c, err.Error())
	case errors.Is(err, shared.ErrInsufficientFunds):
		RespondUnprocessable(c, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, shared.LockTimeoutError{}):
		logger.Warn("Wallet busy", "error", err)
		RespondServiceUnavailable(c, lockRetryAfterSeconds, "wallet is busy, retry shortly")
	default:
		logger.Error("Ledger operation failed", "error", err)
		RespondInternalError(c)
	}
}
