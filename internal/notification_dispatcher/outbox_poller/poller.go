package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wallet-ledger-engine/internal/config"
	"github.com/wallet-ledger-engine/internal/domain/outbox"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

// Poller drains pending outbox messages on a fixed interval
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
	retention        time.Duration
	lastPurge        time.Time
	now              func() time.Time
}

// purgeInterval bounds how often processed rows are cleaned up
const purgeInterval = time.Hour

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
		retention:        cfg.Retention,
		now:              time.Now,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"retention", p.retention.String(),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Outbox batch failed", "error", err)
			}
			p.purgeProcessed(ctx)
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.publisher.Publish(ctx, msg); err != nil {
			p.recordFailure(ctx, msg, err)
		}
	}
	return nil
}

// recordFailure counts the attempt and gives up on the message at maxRetryAttempts
func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String())
	logger.Warn("Failed to publish outbox message", "attempts", msg.Attempts, "error", cause)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment outbox attempts", "error", err)
		return
	}

	if msg.Attempts+1 >= p.maxRetryAttempts {
		logger.Error("Max retry attempts reached, marking FAILED_TO_PUBLISH", "attempts_made", msg.Attempts+1)
		if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
			logger.Error("Failed to mark outbox message FAILED_TO_PUBLISH", "error", err)
		}
	}
}

// purgeProcessed drops published rows older than the retention window,
// at most once per purgeInterval
func (p *Poller) purgeProcessed(ctx context.Context) {
	if p.retention <= 0 {
		return
	}
	now := p.now()
	if !p.lastPurge.IsZero() && now.Sub(p.lastPurge) < purgeInterval {
		return
	}
	p.lastPurge = now

	purged, err := p.outboxRepo.PurgeProcessed(ctx, now.Add(-p.retention))
	if err != nil {
		p.logger.Error("Failed to purge processed outbox messages", "error", err)
		return
	}
	if purged > 0 {
		p.logger.Info("Purged processed outbox messages", "count", purged, "retention", p.retention.String())
	}
}
