package outbox_poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wallet-ledger-engine/internal/config"
	"github.com/wallet-ledger-engine/internal/domain/outbox"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

func TestPoller_ProcessPendingMessages(t *testing.T) {
	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	message1 := &outbox.Message{ID: 1, EventID: uuid.New(), Status: shared.OutboxStatusPending}
	message2 := &outbox.Message{ID: 2, EventID: uuid.New(), Status: shared.OutboxStatusPending}
	exhausted := &outbox.Message{ID: 3, EventID: uuid.New(), Status: shared.OutboxStatusPending, Attempts: 2}

	tests := []struct {
		name          string
		setupMocks    func(repo *MockOutboxRepo, publisher *MockEventPublisher)
		expectedError string
	}{
		{
			name: "publishes every pending message",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				publisher.On("Publish", mock.Anything, message1).Return(nil).Once()
				publisher.On("Publish", mock.Anything, message2).Return(nil).Once()
			},
		},
		{
			name: "error getting pending messages",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()
			},
			expectedError: "failed to get pending outbox messages",
		},
		{
			name: "no pending messages",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()
			},
		},
		{
			name: "failed publish counts an attempt and moves on",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				publisher.On("Publish", mock.Anything, message1).Return(errors.New("publish error")).Once()
				repo.On("IncrementAttempts", mock.Anything, int64(1)).Return(nil).Once()
				publisher.On("Publish", mock.Anything, message2).Return(nil).Once()
			},
		},
		{
			name: "max retry attempts reached",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{exhausted}, nil).Once()
				publisher.On("Publish", mock.Anything, exhausted).Return(errors.New("publish error")).Once()
				repo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()
				repo.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockOutboxRepo{}
			publisher := &MockEventPublisher{}
			poller := NewPoller(cfg, repo, publisher, discardLogger())
			tt.setupMocks(repo, publisher)

			err := poller.processPendingMessages(context.Background())

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
		})
	}
}

func TestPoller_Start(t *testing.T) {
	repo := &MockOutboxRepo{}
	cfg := &config.OutboxConfig{PollingInterval: 5 * time.Millisecond, BatchSize: 10, MaxRetryAttempts: 3}
	poller := NewPoller(cfg, repo, &MockEventPublisher{}, discardLogger())

	polled := make(chan struct{}, 1)
	repo.On("GetPending", mock.Anything, 10).Run(func(mock.Arguments) {
		select {
		case polled <- struct{}{}:
		default:
		}
	}).Return([]*outbox.Message{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("poller never polled")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPoller_PurgeProcessed(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := &config.OutboxConfig{PollingInterval: time.Second, BatchSize: 10, MaxRetryAttempts: 3, Retention: 24 * time.Hour}

	t.Run("purges once per interval", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		poller := NewPoller(cfg, repo, &MockEventPublisher{}, discardLogger())
		poller.now = func() time.Time { return now }
		repo.On("PurgeProcessed", mock.Anything, now.Add(-24*time.Hour)).Return(int64(12), nil).Once()

		poller.purgeProcessed(context.Background())
		poller.now = func() time.Time { return now.Add(purgeInterval / 2) }
		poller.purgeProcessed(context.Background())

		repo.AssertExpectations(t)
	})

	t.Run("purges again after the interval", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		poller := NewPoller(cfg, repo, &MockEventPublisher{}, discardLogger())
		later := now.Add(purgeInterval)
		poller.now = func() time.Time { return now }
		repo.On("PurgeProcessed", mock.Anything, now.Add(-24*time.Hour)).Return(int64(0), errors.New("db error")).Once()
		repo.On("PurgeProcessed", mock.Anything, later.Add(-24*time.Hour)).Return(int64(1), nil).Once()

		poller.purgeProcessed(context.Background())
		poller.now = func() time.Time { return later }
		poller.purgeProcessed(context.Background())

		repo.AssertExpectations(t)
	})

	t.Run("zero retention keeps everything", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		keep := *cfg
		keep.Retention = 0
		poller := NewPoller(&keep, repo, &MockEventPublisher{}, discardLogger())

		poller.purgeProcessed(context.Background())

		repo.AssertNotCalled(t, "PurgeProcessed", mock.Anything, mock.Anything)
	})
}
