package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// ListFilter narrows ListByAccount results
type ListFilter struct {
	Status shared.TransactionStatus
	Limit  int
	Offset int
}

// Repository manages transaction record persistence
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// Update persists the mutable fields: status, summary, admin note, receipt, comment
	Update(ctx context.Context, record *Record) error
	ListByAccount(ctx context.Context, account shared.EntityRef, filter ListFilter) ([]*Record, error)
	CountByAccount(ctx context.Context, account shared.EntityRef, status shared.TransactionStatus) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrRecordNotFound indicates missing transaction record
type ErrRecordNotFound struct {
	ID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "transaction record not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
