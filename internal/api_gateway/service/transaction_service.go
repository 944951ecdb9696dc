package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/domain/transaction"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	recordRepo transaction.Repository
	auditRepo  audit.Repository
	logger     *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, recordRepo transaction.Repository, auditRepo audit.Repository) TransactionService {
	return &TransactionServiceImpl{
		recordRepo: recordRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// ListTransactions reads records from the primary store so a page always
// reflects committed balance changes
func (s *TransactionServiceImpl) ListTransactions(
	ctx context.Context,
	owner shared.EntityRef,
	status shared.TransactionStatus,
	page, perPage int,
) ([]*transaction.Record, int64, error) {
	if err := owner.Validate(); err != nil {
		return nil, 0, err
	}

	records, err := s.recordRepo.ListByAccount(ctx, owner, transaction.ListFilter{
		Status: status,
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	})
	if err != nil {
		s.logger.Error("Failed to list transactions", "owner", owner.String(), "error", err)
		return nil, 0, err
	}

	total, err := s.recordRepo.CountByAccount(ctx, owner, status)
	if err != nil {
		s.logger.Error("Failed to count transactions", "owner", owner.String(), "error", err)
		return nil, 0, err
	}

	return records, total, nil
}

func (s *TransactionServiceImpl) GetAudit(ctx context.Context, recordID uuid.UUID) (*audit.Entry, error) {
	return s.auditRepo.GetByRecordID(ctx, recordID)
}

func (s *TransactionServiceImpl) GetHistory(ctx context.Context, owner shared.EntityRef, page, perPage int) ([]*audit.Entry, int64, error) {
	if err := owner.Validate(); err != nil {
		return nil, 0, err
	}

	entries, err := s.auditRepo.GetByAccount(ctx, owner, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.auditRepo.CountByAccount(ctx, owner)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
