package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger-engine/internal/api_gateway/service"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	ledger "github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

// WalletHandler handles HTTP requests for wallets and their history
type WalletHandler struct {
	ledger             ledger.Ledger
	walletService      service.WalletService
	transactionService service.TransactionService
	currency           string
	logger             *slog.Logger
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(
	logger *slog.Logger,
	ledgerEngine ledger.Ledger,
	walletService service.WalletService,
	transactionService service.TransactionService,
	currency string,
) *WalletHandler {
	return &WalletHandler{
		ledger:             ledgerEngine,
		walletService:      walletService,
		transactionService: transactionService,
		currency:           currency,
		logger:             logger,
	}
}

// Open creates an empty wallet for an owner, 409 if one exists
func (h *WalletHandler) Open(c *gin.Context) {
	var req OpenWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	w, err := h.ledger.OpenWallet(c.Request.Context(), shared.NewEntityRef(req.OwnerType, req.OwnerID))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapWalletToResponse(w, h.currency))
}

// Get returns the wallet of the owner in the path
func (h *WalletHandler) Get(c *gin.Context) {
	owner, err := ownerFromPath(c)
	if err != nil {
		RespondBadRequest(c, "Invalid wallet owner")
		return
	}

	w, err := h.walletService.GetWallet(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapWalletToResponse(w, h.currency))
}

// ListTransactions returns paginated records of a wallet, optionally filtered by status
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	owner, err := ownerFromPath(c)
	if err != nil {
		RespondBadRequest(c, "Invalid wallet owner")
		return
	}

	var params ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters")
		return
	}

	records, total, err := h.transactionService.ListTransactions(
		c.Request.Context(),
		owner,
		shared.TransactionStatus(params.Status),
		params.Page,
		params.PerPage,
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	transactions := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		transactions = append(transactions, mapRecordToResponse(record))
	}

	RespondWithPaginatedData(c, http.StatusOK, transactions, params.Page, params.PerPage, int(total))
}

// History returns paginated audit entries of a wallet from the read model
func (h *WalletHandler) History(c *gin.Context) {
	owner, err := ownerFromPath(c)
	if err != nil {
		RespondBadRequest(c, "Invalid wallet owner")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.transactionService.GetHistory(c.Request.Context(), owner, pagination.Page, pagination.PerPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	history := make([]AuditResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, mapAuditToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, history, pagination.Page, pagination.PerPage, int(total))
}
