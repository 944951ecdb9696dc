package outbox

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// Repository persists notification events next to the ledger writes that
// produced them. Create is called inside the ledger transaction through WithTx;
// the dispatcher uses the remaining methods outside of it.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	// PurgeProcessed removes PROCESSED messages last touched before cutoff
	PurgeProcessed(ctx context.Context, cutoff time.Time) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message " + strconv.FormatInt(e.ID, 10) + " not found"
}
