package components

import (
	"fmt"
	"log/slog"

	"github.com/wallet-ledger-engine/internal/config"
	"github.com/wallet-ledger-engine/internal/domain/notification"
	"github.com/wallet-ledger-engine/internal/domain/shared"
	"github.com/wallet-ledger-engine/internal/notification_dispatcher/service"
)

// CreateDeliveryService creates the delivery service with all its dependencies,
// bounded by a worker pool when one is configured
func CreateDeliveryService(
	dedupe service.Deduper,
	sender notification.Sender,
	logger *slog.Logger,
	cfg *config.Config,
) (service.DeliveryService, error) {
	admins, err := parseAdminRecipients(cfg.Notification.AdminRecipients)
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		logger.Warn("No admin recipients configured, admin notifications will be dropped")
	}

	baseService := service.NewDeliveryService(dedupe, sender, admins, logger.With("component", "delivery_service"))

	if cfg.WorkerPool.Size <= 0 {
		logger.Info("Created delivery service without worker pool")
		return baseService, nil
	}

	workerPoolService, err := service.NewWorkerPoolDeliveryService(
		baseService,
		service.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		logger.With("component", "delivery_worker_pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create delivery worker pool: %w", err)
	}

	logger.Info("Created delivery service with worker pool",
		"pool_size", cfg.WorkerPool.Size,
		"admin_recipients", len(admins),
	)
	return workerPoolService, nil
}

func parseAdminRecipients(raw []string) ([]shared.EntityRef, error) {
	admins := make([]shared.EntityRef, 0, len(raw))
	for _, entry := range raw {
		ref, err := shared.ParseEntityRef(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid admin recipient %q: %w", entry, err)
		}
		admins = append(admins, ref)
	}
	return admins, nil
}
