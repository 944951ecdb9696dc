package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/wallet-ledger-engine/internal/domain/receipt"
)

func TestParseReceiptURL(t *testing.T) {
	id := primitive.NewObjectID()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid", url: "gridfs://" + id.Hex()},
		{name: "wrong scheme", url: "s3://bucket/" + id.Hex(), wantErr: true},
		{name: "bad object id", url: "gridfs://not-an-id", wantErr: true},
		{name: "empty", url: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReceiptURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidReceiptURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, got)
		})
	}
}

func TestReceiptStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("store rejects empty upload", func(mt *mtest.T) {
		bucket, err := gridfs.NewBucket(mt.DB)
		require.NoError(t, err)
		store := NewReceiptStore(newTestLogger(), bucket)

		_, err = store.Store(context.Background(), &receipt.Upload{Filename: "r.png"})
		assert.ErrorIs(t, err, receipt.ErrEmptyUpload)

		_, err = store.Store(context.Background(), nil)
		assert.ErrorIs(t, err, receipt.ErrEmptyUpload)
	})

	mt.Run("delete removes file and chunks", func(mt *mtest.T) {
		bucket, err := gridfs.NewBucket(mt.DB)
		require.NoError(t, err)
		store := NewReceiptStore(newTestLogger(), bucket)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}),
		)

		assert.NoError(t, store.Delete(context.Background(), "gridfs://"+primitive.NewObjectID().Hex()))
	})

	mt.Run("delete of missing file succeeds", func(mt *mtest.T) {
		bucket, err := gridfs.NewBucket(mt.DB)
		require.NoError(t, err)
		store := NewReceiptStore(newTestLogger(), bucket)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		assert.NoError(t, store.Delete(context.Background(), "gridfs://"+primitive.NewObjectID().Hex()))
	})

	mt.Run("delete rejects foreign url", func(mt *mtest.T) {
		bucket, err := gridfs.NewBucket(mt.DB)
		require.NoError(t, err)
		store := NewReceiptStore(newTestLogger(), bucket)

		assert.ErrorIs(t, store.Delete(context.Background(), "https://cdn/receipt.png"), ErrInvalidReceiptURL)
	})
}
