package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wallet-ledger-engine/internal/domain/audit"
	"github.com/wallet-ledger-engine/internal/domain/shared"
)

const (
	// AuditCollectionName is the name of the transaction audit collection in MongoDB
	AuditCollectionName = "transaction_audit"
)

var _ audit.Repository = (*AuditRepository)(nil)

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique record index that makes Record idempotent
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(AuditCollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "record_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "account.type", Value: 1}, {Key: "account.id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

// Record upserts the record snapshot and appends change to its history.
// A change whose event id is already in the history is ignored.
func (r *AuditRepository) Record(ctx context.Context, entry *audit.Entry, change audit.StatusChange) error {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"record_id":        entry.RecordID,
		"history.event_id": bson.M{"$ne": change.EventID},
	}
	update := bson.M{
		"$set": bson.M{
			"account":      entry.Account,
			"causer":       entry.Causer,
			"direction":    entry.Direction,
			"service_type": entry.ServiceType,
			"status":       entry.Status,
			"amount":       entry.Amount,
			"summary":      entry.Summary,
			"receipt":      entry.Receipt,
			"bank":         entry.Bank,
			"updated_at":   entry.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": entry.CreatedAt},
		"$push":        bson.M{"history": change},
	}

	_, err := collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The filter misses when the event is already in the history and the upsert then
		// collides with the unique record index
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Debug("Audit change already recorded",
				"record_id", entry.RecordID.String(),
				"event_id", change.EventID.String())
			return nil
		}
		r.logger.Error("Failed to record audit entry",
			"record_id", entry.RecordID.String(),
			"event_id", change.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// GetByRecordID retrieves the audit entry of one transaction record
func (r *AuditRepository) GetByRecordID(ctx context.Context, recordID uuid.UUID) (*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	var entry audit.Entry
	err := collection.FindOne(ctx, bson.M{"record_id": recordID}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrEntryNotFound{RecordID: recordID}
		}
		r.logger.Error("Failed to get audit entry",
			"record_id", recordID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return &entry, nil
}

// GetByAccount retrieves paginated audit entries for a wallet, newest first
func (r *AuditRepository) GetByAccount(ctx context.Context, account shared.EntityRef, limit, offset int) ([]*audit.Entry, error) {
	collection := r.db.Collection(AuditCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, accountFilter(account), opts)
	if err != nil {
		r.logger.Error("Failed to get audit entries",
			"account", account.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*audit.Entry
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode audit entries",
			"account", account.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}

// CountByAccount counts the audit entries of a wallet
func (r *AuditRepository) CountByAccount(ctx context.Context, account shared.EntityRef) (int64, error) {
	collection := r.db.Collection(AuditCollectionName)

	count, err := collection.CountDocuments(ctx, accountFilter(account))
	if err != nil {
		r.logger.Error("Failed to count audit entries",
			"account", account.String(),
			"error", err)
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}

func accountFilter(account shared.EntityRef) bson.M {
	return bson.M{"account.type": account.Type, "account.id": account.ID}
}
