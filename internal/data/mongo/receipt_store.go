package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wallet-ledger-engine/internal/domain/receipt"
)

const receiptURLScheme = "gridfs://"

var ErrInvalidReceiptURL = errors.New("invalid receipt url")

var _ receipt.Storage = (*ReceiptStore)(nil)

// ReceiptStore keeps receipt uploads in a GridFS bucket
type ReceiptStore struct {
	bucket *gridfs.Bucket
	logger *slog.Logger
}

func NewReceiptStore(logger *slog.Logger, bucket *gridfs.Bucket) *ReceiptStore {
	return &ReceiptStore{
		bucket: bucket,
		logger: logger,
	}
}

// Store uploads the receipt and returns its gridfs:// url
func (s *ReceiptStore) Store(ctx context.Context, upload *receipt.Upload) (string, error) {
	if upload == nil || upload.Content == nil {
		return "", receipt.ErrEmptyUpload
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: upload.ContentType}})
	id, err := s.bucket.UploadFromStream(upload.Filename, upload.Content, opts)
	if err != nil {
		s.logger.Error("Failed to store receipt", "filename", upload.Filename, "error", err)
		return "", fmt.Errorf("failed to store receipt: %w", err)
	}

	url := receiptURLScheme + id.Hex()
	s.logger.Info("Stored receipt", "url", url, "filename", upload.Filename)
	return url, nil
}

// Delete removes a stored receipt. Deleting a receipt that is already gone succeeds.
func (s *ReceiptStore) Delete(ctx context.Context, url string) error {
	id, err := parseReceiptURL(url)
	if err != nil {
		return err
	}

	if err := s.bucket.DeleteContext(ctx, id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil
		}
		s.logger.Error("Failed to delete receipt", "url", url, "error", err)
		return fmt.Errorf("failed to delete receipt: %w", err)
	}

	s.logger.Info("Deleted receipt", "url", url)
	return nil
}

func parseReceiptURL(url string) (primitive.ObjectID, error) {
	hex, ok := strings.CutPrefix(url, receiptURLScheme)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidReceiptURL, url)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidReceiptURL, url)
	}
	return id, nil
}
