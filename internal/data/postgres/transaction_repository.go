package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
	"github.com/wallet-ledger-engine/internal/platform/persistence"
)

const recordColumns = `id, account_type, account_id, causer_type, causer_id, causer_reference, direction, service_type, status,
		amount, summary, admin_note, receipt, comment, bank_id, account_name, account_number, created_at, updated_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction record repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new transaction record
func (r *TransactionRepository) Create(ctx context.Context, rec *transaction.Record) error {
	query := `
		INSERT INTO wallet_transactions (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	bankID, accountName, accountNumber := bankColumns(rec.Bank)
	_, err := r.querier.Exec(ctx, query,
		rec.ID,
		rec.Account.Type,
		rec.Account.ID,
		rec.Causer.Type,
		rec.Causer.ID,
		rec.CauserReference,
		rec.Direction,
		rec.ServiceType,
		rec.Status,
		rec.Amount,
		rec.Summary,
		rec.AdminNote,
		rec.Receipt,
		rec.Comment,
		bankID,
		accountName,
		accountNumber,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction record",
			"record_id", rec.ID.String(),
			"account", rec.Account.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create transaction record: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction record by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM wallet_transactions
		WHERE id = $1
	`

	rec, err := scanRecord(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrRecordNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction record", "record_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction record: %w", err)
	}

	return rec, nil
}

// Update persists the mutable fields of a record. Amount, direction and
// the account are never rewritten.
func (r *TransactionRepository) Update(ctx context.Context, rec *transaction.Record) error {
	query := `
		UPDATE wallet_transactions
		SET status = $1, summary = $2, admin_note = $3, receipt = $4, comment = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := r.querier.Exec(ctx, query,
		rec.Status,
		rec.Summary,
		rec.AdminNote,
		rec.Receipt,
		rec.Comment,
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update transaction record",
			"record_id", rec.ID.String(),
			"status", string(rec.Status),
			"error", err,
		)
		return fmt.Errorf("failed to update transaction record: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrRecordNotFound{ID: rec.ID}
	}

	return nil
}

// ListByAccount returns the account's records, newest first. An empty status matches all.
func (r *TransactionRepository) ListByAccount(ctx context.Context, account shared.EntityRef, filter transaction.ListFilter) ([]*transaction.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM wallet_transactions
		WHERE account_type = $1 AND account_id = $2 AND ($3::text = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.querier.Query(ctx, query, account.Type, account.ID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		r.logger.Error("Failed to list transaction records", "account", account.String(), "error", err)
		return nil, fmt.Errorf("failed to list transaction records: %w", err)
	}
	defer rows.Close()

	var records []*transaction.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction record", "error", err)
			return nil, fmt.Errorf("failed to scan transaction record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transaction records", "error", err)
		return nil, fmt.Errorf("error iterating over transaction records: %w", err)
	}

	return records, nil
}

// CountByAccount counts the account's records. An empty status matches all.
func (r *TransactionRepository) CountByAccount(ctx context.Context, account shared.EntityRef, status shared.TransactionStatus) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM wallet_transactions
		WHERE account_type = $1 AND account_id = $2 AND ($3::text = '' OR status = $3)
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, account.Type, account.ID, string(status)).Scan(&count); err != nil {
		r.logger.Error("Failed to count transaction records", "account", account.String(), "error", err)
		return 0, fmt.Errorf("failed to count transaction records: %w", err)
	}

	return count, nil
}

func bankColumns(bank *transaction.BankDestination) (bankID, accountName, accountNumber *string) {
	if bank == nil {
		return nil, nil, nil
	}
	return &bank.BankID, &bank.AccountName, &bank.AccountNumber
}

func scanRecord(row pgx.Row) (*transaction.Record, error) {
	var (
		rec                                transaction.Record
		bankID, accountName, accountNumber *string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Account.Type,
		&rec.Account.ID,
		&rec.Causer.Type,
		&rec.Causer.ID,
		&rec.CauserReference,
		&rec.Direction,
		&rec.ServiceType,
		&rec.Status,
		&rec.Amount,
		&rec.Summary,
		&rec.AdminNote,
		&rec.Receipt,
		&rec.Comment,
		&bankID,
		&accountName,
		&accountNumber,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bankID != nil {
		rec.Bank = &transaction.BankDestination{BankID: *bankID}
		if accountName != nil {
			rec.Bank.AccountName = *accountName
		}
		if accountNumber != nil {
			rec.Bank.AccountNumber = *accountNumber
		}
	}

	return &rec, nil
}
