package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/wallet"
)

var walletRowColumns = []string{"id", "owner_type", "owner_id", "balance", "created_at", "updated_at"}

func TestWalletRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &WalletRepository{querier: mock, logger: newTestLogger()}
	w, err := wallet.NewWallet(shared.NewEntityRef("User", "42"))
	require.NoError(t, err)

	query := regexp.QuoteMeta("INSERT INTO wallets (id, owner_type, owner_id, balance, created_at, updated_at)")

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(w.ID, "User", "42", decimalArg{decimal0}, w.CreatedAt, w.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, w))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate owner", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(w.ID, "User", "42", decimalArg{decimal0}, w.CreatedAt, w.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		err := repo.Create(ctx, w)
		assert.ErrorIs(t, err, wallet.ErrWalletExists{Owner: w.Owner})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).WithArgs(anyArgs(6)...).WillReturnError(expectedErr)

		err := repo.Create(ctx, w)
		assert.ErrorContains(t, err, "failed to create wallet")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepository_GetByOwner(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &WalletRepository{querier: mock, logger: newTestLogger()}
	owner := shared.NewEntityRef("User", "42")
	id := uuid.New()
	now := time.Now()
	query := regexp.QuoteMeta("FROM wallets WHERE owner_type = $1 AND owner_id = $2")

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs("User", "42").
			WillReturnRows(pgxmock.NewRows(walletRowColumns).AddRow(id, "User", "42", dec("150.25"), now, now))

		got, err := repo.GetByOwner(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, owner, got.Owner)
		assert.True(t, got.Balance.Equal(dec("150.25")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs("User", "42").
			WillReturnRows(pgxmock.NewRows(walletRowColumns))

		_, err := repo.GetByOwner(ctx, owner)
		assert.ErrorIs(t, err, wallet.ErrWalletNotFound{Owner: owner})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	owner := shared.NewEntityRef("Merchant", "9")
	id := uuid.New()
	now := time.Now()

	setConfig := regexp.QuoteMeta("SELECT set_config('lock_timeout', $1, true)")
	lockQuery := regexp.QuoteMeta("WHERE owner_type = $1 AND owner_id = $2 FOR UPDATE")

	t.Run("sets lock timeout then locks", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &WalletRepository{querier: mock, logger: newTestLogger(), lockTimeout: 1500 * time.Millisecond}

		mock.ExpectExec(setConfig).WithArgs("1500ms").WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery(lockQuery).
			WithArgs("Merchant", "9").
			WillReturnRows(pgxmock.NewRows(walletRowColumns).AddRow(id, "Merchant", "9", dec("100"), now, now))

		got, err := repo.LockForUpdate(ctx, owner)
		require.NoError(t, err)
		assert.True(t, got.Balance.Equal(dec("100")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no timeout configured", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &WalletRepository{querier: mock, logger: newTestLogger()}

		mock.ExpectQuery(lockQuery).
			WithArgs("Merchant", "9").
			WillReturnRows(pgxmock.NewRows(walletRowColumns).AddRow(id, "Merchant", "9", dec("1"), now, now))

		_, err = repo.LockForUpdate(ctx, owner)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock not available", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &WalletRepository{querier: mock, logger: newTestLogger(), lockTimeout: time.Second}

		mock.ExpectExec(setConfig).WithArgs("1000ms").WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery(lockQuery).
			WithArgs("Merchant", "9").
			WillReturnError(&pgconn.PgError{Code: pgerrcode.LockNotAvailable, Message: "canceling statement due to lock timeout"})

		_, err = repo.LockForUpdate(ctx, owner)
		assert.ErrorIs(t, err, shared.LockTimeoutError{Owner: owner})
		assert.True(t, shared.IsRetryable(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &WalletRepository{querier: mock, logger: newTestLogger()}

		mock.ExpectQuery(lockQuery).WithArgs("Merchant", "9").WillReturnRows(pgxmock.NewRows(walletRowColumns))

		_, err = repo.LockForUpdate(ctx, owner)
		assert.ErrorIs(t, err, wallet.ErrWalletNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepository_UpdateBalance(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &WalletRepository{querier: mock, logger: newTestLogger()}
	w := &wallet.Wallet{ID: uuid.New(), Owner: shared.NewEntityRef("User", "1"), Balance: dec("40"), UpdatedAt: time.Now()}
	query := regexp.QuoteMeta("UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3")

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(decimalArg{dec("40.00")}, w.UpdatedAt, w.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.UpdateBalance(ctx, w))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(decimalArg{dec("40")}, w.UpdatedAt, w.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.UpdateBalance(ctx, w), wallet.ErrWalletNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWalletRepository_WithTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	repo := &WalletRepository{querier: mock, logger: newTestLogger(), lockTimeout: time.Second}
	txRepo := repo.WithTx(tx).(*WalletRepository)

	assert.Equal(t, tx, txRepo.querier)
	assert.Equal(t, time.Second, txRepo.lockTimeout)
}
