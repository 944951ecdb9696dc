package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wallet-ledger-engine/internal/api_gateway"
	"github.com/wallet-ledger-engine/internal/api_gateway/service"
	"github.com/wallet-ledger-engine/internal/config"
	"github.com/wallet-ledger-engine/internal/data/mongo"
	"github.com/wallet-ledger-engine/internal/data/postgres"
	"github.com/wallet-ledger-engine/internal/logger"
	"github.com/wallet-ledger-engine/internal/platform/persistence"
	"github.com/wallet-ledger-engine/internal/wallet_ledger/components"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	configName, err := config.ParseFlags("api_gateway", os.Args[1:])
	if err != nil {
		fmt.Printf("Failed to parse flags: %v\n", err)
		os.Exit(2)
	}
	cfg, err := config.LoadConfig(configName)
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context, PostgreSQL migrates its schema first
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	receiptBucket, err := mongoDB.ReceiptBucket()
	if err != nil {
		log.Error("Failed to open receipt bucket", "error", err)
		os.Exit(1)
	}

	redisClient, err := persistence.NewRedisClient(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	walletRepo := postgres.NewWalletRepository(log, postgresDB, cfg.Ledger.LockTimeout)
	recordRepo := postgres.NewTransactionRepository(log, postgresDB)
	bankRepo := postgres.NewBankAccountRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())
	receiptStore := mongo.NewReceiptStore(log, receiptBucket)

	// Initialize the ledger engine and read services
	ledgerEngine := components.CreateLedgerEngine(
		postgresDB,
		walletRepo,
		recordRepo,
		bankRepo,
		outboxRepo,
		receiptStore,
		log,
		cfg,
	)
	walletService := service.NewWalletService(walletRepo)
	transactionService := service.NewTransactionService(log, recordRepo, auditRepo)

	// Initialize REST server
	server, err := api_gateway.NewServer(log, cfg, ledgerEngine, walletService, transactionService, redisClient)
	if err != nil {
		log.Error("Failed to initialize REST server", "error", err)
		os.Exit(1)
	}
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the stores behind them
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if err = redisClient.Close(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
