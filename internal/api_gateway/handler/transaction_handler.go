package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/api_gateway/middleware"
	"github.com/wallet-ledger-engine/internal/api_gateway/service"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	ledger "github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

// TransactionHandler handles HTTP requests for single transactions and their review
type TransactionHandler struct {
	ledger             ledger.Ledger
	transactionService service.TransactionService
	maxUploadSize      int64
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(
	logger *slog.Logger,
	ledgerEngine ledger.Ledger,
	transactionService service.TransactionService,
	maxUploadSize int64,
) *TransactionHandler {
	return &TransactionHandler{
		ledger:             ledgerEngine,
		transactionService: transactionService,
		maxUploadSize:      maxUploadSize,
		logger:             logger,
	}
}

// GetByID returns a transaction. A pending withdrawal the wallet can no longer
// cover is cancelled before it is returned.
func (h *TransactionHandler) GetByID(c *gin.Context) {
	h.validate(c)
}

// Validate re-checks a pending withdrawal against the current balance
func (h *TransactionHandler) Validate(c *gin.Context) {
	h.validate(c)
}

func (h *TransactionHandler) validate(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	record, err := h.ledger.Validate(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// Approve completes a pending transaction and applies its balance change
func (h *TransactionHandler) Approve(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	review, closeUpload, ok := h.review(c)
	if !ok {
		return
	}
	defer closeUpload()

	record, err := h.ledger.Approve(c.Request.Context(), id, review)
	if err != nil {
		// A withdrawal the wallet no longer covers comes back cancelled
		if record != nil && errors.Is(err, shared.ErrNotAllowed) {
			RespondWithDataAndError(c, http.StatusConflict, mapRecordToResponse(record), "CONFLICT", err.Error())
			return
		}
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// Decline rejects a pending transaction without touching the balance
func (h *TransactionHandler) Decline(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	review, closeUpload, ok := h.review(c)
	if !ok {
		return
	}
	defer closeUpload()

	record, err := h.ledger.Decline(c.Request.Context(), id, review)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapRecordToResponse(record))
}

// Audit returns the status history of a transaction from the read model
func (h *TransactionHandler) Audit(c *gin.Context) {
	id, ok := h.recordID(c)
	if !ok {
		return
	}

	entry, err := h.transactionService.GetAudit(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAuditToResponse(entry))
}

func (h *TransactionHandler) recordID(c *gin.Context) (uuid.UUID, bool) {
	id, err := recordIDFromPath(c)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", c.Param("id"), "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *TransactionHandler) review(c *gin.Context) (*ledger.ReviewRequest, func(), bool) {
	var req ReviewRequest
	if err := bindOptional(c, &req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return nil, nil, false
	}

	upload, closeUpload, err := receiptFromRequest(c, h.maxUploadSize)
	if err != nil {
		RespondBadRequest(c, "Invalid receipt: "+err.Error())
		return nil, nil, false
	}

	reviewer, _ := middleware.GetCauser(c)
	return &ledger.ReviewRequest{
		Reviewer:  reviewer,
		AdminNote: req.AdminNote,
		Receipt:   upload,
	}, closeUpload, true
}
