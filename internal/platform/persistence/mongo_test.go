package persistence

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongo.Connect does not dial until the first operation, so these tests need no server
func newDisconnectedMongo(t *testing.T) *MongoDB {
	t.Helper()
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return &MongoDB{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		client:        client,
		database:      client.Database("wallet_ledger_test"),
		receiptBucket: "receipts",
	}
}

func TestMongoDB_Accessors(t *testing.T) {
	mdb := newDisconnectedMongo(t)

	assert.Equal(t, "wallet_ledger_test", mdb.Database().Name())
	assert.Equal(t, "transaction_audit", mdb.Collection("transaction_audit").Name())
}

func TestMongoDB_ReceiptBucket(t *testing.T) {
	mdb := newDisconnectedMongo(t)

	bucket, err := mdb.ReceiptBucket()

	require.NoError(t, err)
	assert.Equal(t, "receipts.files", bucket.GetFilesCollection().Name())
}
