package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/wallet-ledger-engine/internal/domain/notification"
)

// WorkerPoolDeliveryService bounds how many deliveries run at once
type WorkerPoolDeliveryService struct {
	baseService DeliveryService
	pool        *ants.Pool
	logger      *slog.Logger
}

var _ DeliveryService = (*WorkerPoolDeliveryService)(nil)

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolDeliveryService(
	baseService DeliveryService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolDeliveryService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolDeliveryService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Deliver runs the delivery on a pool worker and waits for its result
func (s *WorkerPoolDeliveryService) Deliver(ctx context.Context, event *notification.Event) error {
	resultChan := make(chan error, 1)
	eventCopy := *event

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.Deliver(ctx, &eventCopy)
	})
	if err != nil {
		s.logger.Error("Failed to submit delivery to worker pool", "event_id", event.EventID.String(), "error", err)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases the pool
func (s *WorkerPoolDeliveryService) Shutdown() {
	s.logger.Info("Shutting down delivery worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

func (s *WorkerPoolDeliveryService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolDeliveryService) Capacity() int {
	return s.pool.Cap()
}
