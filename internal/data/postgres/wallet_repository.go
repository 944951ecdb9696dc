// Package postgres provides PostgreSQL implementations of the domain repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
	"github.com/wallet-ledger-engine/internal/platform/persistence"
)

// WalletRepository implements the wallet.Repository interface for PostgreSQL
type WalletRepository struct {
	querier     persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger      *slog.Logger
	lockTimeout time.Duration
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
// lockTimeout bounds how long LockForUpdate waits for a contended row.
func NewWalletRepository(logger *slog.Logger, db *persistence.PostgresDB, lockTimeout time.Duration) wallet.Repository {
	return &WalletRepository{
		querier:     db.Pool(),
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// WithTx returns a repository bound to tx
func (r *WalletRepository) WithTx(tx pgx.Tx) wallet.Repository {
	return &WalletRepository{
		querier:     tx,
		logger:      r.logger,
		lockTimeout: r.lockTimeout,
	}
}

// Create stores a new wallet. A second wallet for the same owner fails with ErrWalletExists.
func (r *WalletRepository) Create(ctx context.Context, w *wallet.Wallet) error {
	query := `
		INSERT INTO wallets (id, owner_type, owner_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		w.ID,
		w.Owner.Type,
		w.Owner.ID,
		w.Balance,
		w.CreatedAt,
		w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return wallet.ErrWalletExists{Owner: w.Owner}
		}
		r.logger.Error("Failed to create wallet", "owner", w.Owner.String(), "error", err)
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// GetByOwner reads a wallet without locking it
func (r *WalletRepository) GetByOwner(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	query := `
		SELECT id, owner_type, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_type = $1 AND owner_id = $2
	`

	w, err := scanWallet(r.querier.QueryRow(ctx, query, owner.Type, owner.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{Owner: owner}
		}
		r.logger.Error("Failed to get wallet", "owner", owner.String(), "error", err)
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return w, nil
}

// LockForUpdate takes the row lock on the owner's wallet and returns the balance read under it.
// It must run inside a transaction. A wait longer than the lock timeout fails with
// shared.LockTimeoutError.
func (r *WalletRepository) LockForUpdate(ctx context.Context, owner shared.EntityRef) (*wallet.Wallet, error) {
	if r.lockTimeout > 0 {
		// set_config with is_local=true only lasts until the end of the transaction
		_, err := r.querier.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`,
			fmt.Sprintf("%dms", r.lockTimeout.Milliseconds()))
		if err != nil {
			r.logger.Error("Failed to set lock timeout", "owner", owner.String(), "error", err)
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	query := `
		SELECT id, owner_type, owner_id, balance, created_at, updated_at
		FROM wallets
		WHERE owner_type = $1 AND owner_id = $2
		FOR UPDATE
	`

	w, err := scanWallet(r.querier.QueryRow(ctx, query, owner.Type, owner.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, wallet.ErrWalletNotFound{Owner: owner}
		}
		if isLockNotAvailable(err) {
			r.logger.Warn("Timed out waiting for wallet lock", "owner", owner.String(), "lock_timeout", r.lockTimeout.String())
			return nil, shared.LockTimeoutError{Owner: owner}
		}
		r.logger.Error("Failed to lock wallet for update", "owner", owner.String(), "error", err)
		return nil, fmt.Errorf("failed to lock wallet for update: %w", err)
	}

	return w, nil
}

// UpdateBalance writes the wallet balance. The caller must hold the row lock.
func (r *WalletRepository) UpdateBalance(ctx context.Context, w *wallet.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, w.Balance, w.UpdatedAt, w.ID)
	if err != nil {
		r.logger.Error("Failed to update wallet balance", "owner", w.Owner.String(), "error", err)
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	if result.RowsAffected() == 0 {
		return wallet.ErrWalletNotFound{Owner: w.Owner}
	}

	return nil
}

func scanWallet(row pgx.Row) (*wallet.Wallet, error) {
	var w wallet.Wallet
	err := row.Scan(
		&w.ID,
		&w.Owner.Type,
		&w.Owner.ID,
		&w.Balance,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
