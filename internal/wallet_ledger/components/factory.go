package components

import (
	"log/slog"

	"github.com/wallet-ledger-engine/internal/config"
	"github.com/wallet-ledger-engine/internal/domain/bankaccount"
	"github.com/wallet-ledger-engine/internal/domain/outbox"
	"github.com/wallet-ledger-engine/internal/domain/receipt"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
	"github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

// CreateLedgerEngine creates a new Engine with all its dependencies.
func CreateLedgerEngine(
	db service.TxRunner,
	walletRepo wallet.Repository,
	recordRepo transaction.Repository,
	bankRepo bankaccount.Repository,
	outboxRepo outbox.Repository,
	receipts receipt.Storage,
	logger *slog.Logger,
	cfg *config.Config,
) *service.Engine {
	walletManager := NewWalletManager(walletRepo, logger.With("component", "wallet_manager"))
	notifier := NewOutboxNotifier(outboxRepo, logger.With("component", "outbox_notifier"))

	engine := service.NewEngine(
		db,
		walletManager,
		recordRepo,
		bankRepo,
		receipts,
		notifier,
		notifier,
		service.EngineConfig{
			Currency:       cfg.Ledger.Currency,
			AtomicTransfer: cfg.Ledger.AtomicTransfer,
		},
		logger,
	)

	logger.Info("Created wallet ledger engine",
		"currency", cfg.Ledger.Currency,
		"atomic_transfer", cfg.Ledger.AtomicTransfer,
	)
	return engine
}
