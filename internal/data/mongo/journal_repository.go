// Package mongo holds the read-side journal that the ledger relay projects
// posted and voided transactions into.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/doctor-smile-ledger/internal/domain/ledger"
)

const (
	// JournalCollectionName is the name of the journal collection in MongoDB
	JournalCollectionName = "ledger_journal"
)

// JournalRepository implements ledger.JournalRepository for MongoDB
type JournalRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewJournalRepository creates a journal repository over coll
func NewJournalRepository(logger *slog.Logger, coll *mongo.Collection) *JournalRepository {
	return &JournalRepository{
		coll:   coll,
		logger: logger,
	}
}

// EnsureIndexes creates the account lookup index used by ListByAccount
func (r *JournalRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "account_ids", Value: 1}, {Key: "posted_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create journal index: %w", err)
	}
	return nil
}

// RecordPosted upserts the record keyed by transaction id. A redelivered
// event finds the document present and changes nothing, including a VOID
// status written in the meantime.
func (r *JournalRepository) RecordPosted(ctx context.Context, record *ledger.JournalRecord) error {
	filter := bson.M{"_id": record.TransactionID}
	update := bson.M{"$setOnInsert": record}
	opts := options.Update().SetUpsert(true)

	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		r.logger.Error("Failed to record posted transaction",
			"transaction_id", record.TransactionID,
			"error", err)
		return fmt.Errorf("failed to record posted transaction: %w", err)
	}
	return nil
}

// RecordVoided flips a projected record to VOID. The posted event of the
// original is always published first, so a miss means the projection is
// behind and the caller should retry.
func (r *JournalRepository) RecordVoided(ctx context.Context, transactionID, reversalID string, at time.Time) error {
	filter := bson.M{"_id": transactionID}
	update := bson.M{
		"$set": bson.M{
			"status":    ledger.StatusVoid,
			"voided_by": reversalID,
			"voided_at": at,
		},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to record voided transaction",
			"transaction_id", transactionID,
			"error", err)
		return fmt.Errorf("failed to record voided transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return ledger.ErrJournalRecordNotFound{TransactionID: transactionID}
	}
	return nil
}

// GetByTransactionID retrieves one projected record
func (r *JournalRepository) GetByTransactionID(ctx context.Context, transactionID string) (*ledger.JournalRecord, error) {
	var record ledger.JournalRecord
	err := r.coll.FindOne(ctx, bson.M{"_id": transactionID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrJournalRecordNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get journal record",
			"transaction_id", transactionID,
			"error", err)
		return nil, fmt.Errorf("failed to get journal record: %w", err)
	}
	return &record, nil
}

// ListByAccount returns the newest records touching accountID
func (r *JournalRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*ledger.JournalRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "posted_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"account_ids": accountID}, opts)
	if err != nil {
		r.logger.Error("Failed to list journal records",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to list journal records: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*ledger.JournalRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode journal records",
			"account_id", accountID,
			"error", err)
		return nil, fmt.Errorf("failed to decode journal records: %w", err)
	}
	return records, nil
}
