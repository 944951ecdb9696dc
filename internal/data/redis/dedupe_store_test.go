package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

var owner = shared.NewEntityRef("User", "7")

func newTestStore(t *testing.T) (*DedupeStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewDedupeStore(client, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestDedupeStore_Claim(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	eventID := uuid.New()

	claimed, err := store.Claim(ctx, eventID, owner)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, eventID, owner)
	require.NoError(t, err)
	assert.False(t, claimed)

	assert.True(t, mr.Exists(deliveredKey(eventID, owner)))
	assert.Equal(t, time.Hour, mr.TTL(deliveredKey(eventID, owner)))

	t.Run("expires", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)
		claimed, err := store.Claim(ctx, eventID, owner)
		require.NoError(t, err)
		assert.True(t, claimed)
	})
}

func TestDedupeStore_ClaimIsPerDestination(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	eventID := uuid.New()

	first, err := store.Claim(ctx, eventID, shared.NewEntityRef("Admin", "1"))
	require.NoError(t, err)
	second, err := store.Claim(ctx, eventID, shared.NewEntityRef("Admin", "2"))
	require.NoError(t, err)

	assert.True(t, first)
	assert.True(t, second)
}

func TestDedupeStore_Release(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	eventID := uuid.New()

	_, err := store.Claim(ctx, eventID, owner)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, eventID, owner))

	claimed, err := store.Claim(ctx, eventID, owner)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestDedupeStore_Unavailable(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	_, err := store.Claim(context.Background(), uuid.New(), owner)
	assert.ErrorContains(t, err, "failed to claim event")
}
