package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
	"github.com/wallet-ledger-engine/internal/wallet_ledger/service"
)

// WalletManagerImpl implements the WalletManager interface
type WalletManagerImpl struct {
	walletRepo wallet.Repository
	logger     *slog.Logger
}

// NewWalletManager creates a new WalletManagerImpl
func NewWalletManager(walletRepo wallet.Repository, logger *slog.Logger) service.WalletManager {
	return &WalletManagerImpl{
		walletRepo: walletRepo,
		logger:     logger,
	}
}

// Open creates an empty wallet for owner
func (m *WalletManagerImpl) Open(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	w, err := wallet.NewWallet(owner)
	if err != nil {
		return nil, err
	}
	if err := m.walletRepo.Create(ctx, w); err != nil {
		var exists wallet.ErrWalletExists
		if errors.As(err, &exists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create wallet for %s: %w", owner, err)
	}
	return w, nil
}

// Lock takes the row lock on owner's wallet for the rest of tx
func (m *WalletManagerImpl) Lock(ctx context.Context, tx pgx.Tx, owner shared.EntityRef) (*wallet.Wallet, error) {
	locked, err := m.walletRepo.WithTx(tx).LockForUpdate(ctx, owner)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound{}) || errors.Is(err, shared.LockTimeoutError{}) {
			m.logger.Warn("Wallet not lockable", "owner", owner.String(), "error", err)
			return nil, err
		}
		m.logger.Error("Failed to lock wallet", "owner", owner.String(), "error", err)
		return nil, fmt.Errorf("failed to lock wallet %s: %w", owner, err)
	}
	m.logger.Debug("Wallet locked", "owner", owner.String(), "bal", locked.Balance.String())
	return locked, nil
}

// Apply credits or debits the locked wallet and persists the new balance
func (m *WalletManagerImpl) Apply(
	ctx context.Context,
	tx pgx.Tx,
	locked *wallet.Wallet,
	direction shared.Direction,
	amount decimal.Decimal,
) error {
	var err error
	switch direction {
	case shared.DirectionCredit:
		err = locked.Credit(amount)
	case shared.DirectionDebit:
		err = locked.Debit(amount)
	default:
		err = fmt.Errorf("%w: unknown direction %q", shared.ErrNotAllowed, direction)
	}
	if err != nil {
		m.logger.Warn("Balance change rejected", "owner", locked.Owner.String(), "bal", locked.Balance.String(), "amt", amount.String(), "error", err)
		return err
	}

	if err := m.walletRepo.WithTx(tx).UpdateBalance(ctx, locked); err != nil {
		m.logger.Error("Failed to persist wallet balance", "owner", locked.Owner.String(), "error", err)
		return fmt.Errorf("failed to update balance for wallet %s: %w", locked.Owner, err)
	}
	m.logger.Debug("Wallet balance updated", "owner", locked.Owner.String(), "new_bal", locked.Balance.String())
	return nil
}
