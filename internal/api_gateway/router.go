package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wallet-ledger-engine/internal/api_gateway/handler"
	"github.com/wallet-ledger-engine/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	walletHandler *handler.WalletHandler,
	ledgerHandler *handler.LedgerHandler,
	transactionHandler *handler.TransactionHandler,
	idempotency gin.HandlerFunc,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints. Every call names its causer and unsafe methods
	// replay the stored response on a repeated Idempotency-Key.
	v1 := r.Group("/api/v1", middleware.RequireCauser(), idempotency)
	{
		// Wallet operations
		v1.POST("/wallets", walletHandler.Open)
		wallets := v1.Group("/wallets/:owner_type/:owner_id")
		{
			wallets.GET("", walletHandler.Get)
			wallets.GET("/transactions", walletHandler.ListTransactions)
			wallets.GET("/audit", walletHandler.History)
			wallets.POST("/deposits", ledgerHandler.Deposit)
			wallets.POST("/withdrawals", ledgerHandler.Withdraw)
			wallets.POST("/withdrawal-requests", ledgerHandler.RequestWithdrawal)
			wallets.POST("/transfers", ledgerHandler.Transfer)
		}

		// Transaction operations
		transactions := v1.Group("/transactions/:id")
		{
			transactions.GET("", transactionHandler.GetByID)
			transactions.GET("/audit", transactionHandler.Audit)
			transactions.POST("/approve", transactionHandler.Approve)
			transactions.POST("/decline", transactionHandler.Decline)
			transactions.POST("/validate", transactionHandler.Validate)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
