package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wallet-ledger-engine/internal/api_gateway/handler"
	"github.com/wallet-ledger-engine/internal/api_gateway/middleware"
	"github.com/wallet-ledger-engine/internal/api_gateway/service"
	"github.com/wallet-ledger-engine/internal/config"
	ledger "github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server in front of the ledger engine
func NewServer(
	log *slog.Logger,
	cfg *config.Config,
	ledgerEngine ledger.Ledger,
	walletService service.WalletService,
	transactionService service.TransactionService,
	cache redis.UniversalClient,
) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register request validators: %w", err)
	}

	httpRouter := gin.New()
	httpRouter.MaxMultipartMemory = cfg.Server.MaxUploadSize

	walletHandler := handler.NewWalletHandler(log, ledgerEngine, walletService, transactionService, cfg.Ledger.Currency)
	ledgerHandler := handler.NewLedgerHandler(log, ledgerEngine, cfg.Server.MaxUploadSize)
	transactionHandler := handler.NewTransactionHandler(log, ledgerEngine, transactionService, cfg.Server.MaxUploadSize)
	idempotency := middleware.Idempotency(cache, cfg.Redis.IdempotencyTTL, log)

	setupRouter(log, httpRouter, walletHandler, ledgerHandler, transactionHandler, idempotency)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}, nil
}

// Handler exposes the router for in-process callers
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server within timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
