package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/api_gateway/middleware"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	ledger "github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

// LedgerHandler handles balance changing requests on a wallet
type LedgerHandler struct {
	ledger        ledger.Ledger
	maxUploadSize int64
	logger        *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, ledgerEngine ledger.Ledger, maxUploadSize int64) *LedgerHandler {
	return &LedgerHandler{
		ledger:        ledgerEngine,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Deposit credits the wallet in the path
func (h *LedgerHandler) Deposit(c *gin.Context) {
	h.apply(c, shared.DirectionCredit)
}

// Withdraw debits the wallet in the path
func (h *LedgerHandler) Withdraw(c *gin.Context) {
	h.apply(c, shared.DirectionDebit)
}

func (h *LedgerHandler) apply(c *gin.Context, direction shared.Direction) {
	owner, err := ownerFromPath(c)
	if err != nil {
		RespondBadRequest(c, "Invalid wallet owner")
		return
	}

	var req LedgerOperationRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	upload, closeUpload, err := receiptFromRequest(c, h.maxUploadSize)
	if err != nil {
		RespondBadRequest(c, "Invalid receipt: "+err.Error())
		return
	}
	defer closeUpload()

	causer, _ := middleware.GetCauser(c)
	fields := transaction.Fields{
		Status:    shared.TransactionStatus(req.Status),
		Comment:   req.Comment,
		AdminNote: req.AdminNote,
	}
	request := &ledger.LedgerRequest{
		Account:     owner,
		Amount:      amount,
		Causer:      causer,
		ServiceType: shared.ServiceType(req.ServiceType),
		Intent:      transaction.NewTransaction{Fields: fields},
		Receipt:     upload,
	}
	updating := req.RecordID != ""
	if updating {
		request.Intent = transaction.UpdateExisting{RecordID: uuid.MustParse(req.RecordID), Fields: fields}
	}

	var record *transaction.Record
	if direction == shared.DirectionCredit {
		record, err = h.ledger.Deposit(c.Request.Context(), request)
	} else {
		record, err = h.ledger.Withdraw(c.Request.Context(), request)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if updating {
		RespondOK(c, mapRecordToResponse(record))
		return
	}
	RespondCreated(c, mapRecordToResponse(record))
}

// Transfer moves funds from the wallet in the path to the receiver in the body
func (h *LedgerHandler) Transfer(c *gin.Context) {
	owner, err := ownerFromPath(c)
	if err != nil {
		RespondBadRequest(c, "Invalid wallet owner")
		return
	}

	var req TransferRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	upload, closeUpload, err := receiptFromRequest(c, h.maxUploadSize)
	if err != nil {
		RespondBadRequest(c, "Invalid receipt: "+err.Error())
		return
	}
	defer closeUpload()

	// The sender keeps the caller's display data only when the caller owns the wallet
	sender := transaction.NewCauser(owner)
	if causer, ok := middleware.GetCauser(c); ok && causer.Ref.Equal(owner) {
		sender = causer
	}

	result, err := h.ledger.Transfer(c.Request.Context(), &ledger.TransferRequest{
		Sender: sender,
		Receiver: transaction.Causer{
			Ref:           shared.NewEntityRef(req.ReceiverType, req.ReceiverID),
			ReferenceCode: req.ReceiverReference,
			FullName:      req.ReceiverName,
		},
		Amount:  amount,
		Comment: req.Comment,
		Receipt: upload,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, TransferResponse{
		Debit:  mapRecordToResponse(result.Debit),
		Credit: mapRecordToResponse(result.Credit),
	})
}

// RequestWithdrawal records a pending payout for admin review
func (h *LedgerHandler) RequestWithdrawal(c *gin.Context) {
	owner, err := ownerFromPath(c)
	if err != nil {
		RespondBadRequest(c, "Invalid wallet owner")
		return
	}

	var req WithdrawalRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount")
		return
	}

	causer, _ := middleware.GetCauser(c)
	record, err := h.ledger.RequestWithdrawal(c.Request.Context(), &ledger.WithdrawalRequest{
		Account:       owner,
		Amount:        amount,
		Causer:        causer,
		BankAccountID: uuid.MustParse(req.BankAccountID),
		Comment:       req.Comment,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondAccepted(c, mapRecordToResponse(record))
}
