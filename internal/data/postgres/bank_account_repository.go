package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/bankaccount"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/platform/persistence"
)

// BankAccountRepository resolves payout destinations for withdrawal requests
type BankAccountRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewBankAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) bankaccount.Repository {
	return &BankAccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetForOwner returns the bank account only when it belongs to owner
func (r *BankAccountRepository) GetForOwner(ctx context.Context, owner shared.EntityRef, id uuid.UUID) (*bankaccount.BankAccount, error) {
	query := `
		SELECT id, owner_type, owner_id, bank_id, account_name, account_number
		FROM bank_accounts
		WHERE id = $1 AND owner_type = $2 AND owner_id = $3
	`

	var acc bankaccount.BankAccount
	err := r.querier.QueryRow(ctx, query, id, owner.Type, owner.ID).Scan(
		&acc.ID,
		&acc.Owner.Type,
		&acc.Owner.ID,
		&acc.BankID,
		&acc.AccountName,
		&acc.AccountNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bankaccount.ErrBankAccountNotFound{ID: id}
		}
		r.logger.Error("Failed to get bank account", "id", id.String(), "owner", owner.String(), "error", err)
		return nil, fmt.Errorf("failed to get bank account: %w", err)
	}

	return &acc, nil
}
