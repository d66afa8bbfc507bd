package dbmongo

import (
	"context"
	"fmt"
	"time"

	"postflow/internal/common"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AttemptEntry is one engine firing recorded for audit. The journal is
// append-only history, not authoritative state: the mysql row stays the
// source of truth and a lost journal write never blocks the engine.
type AttemptEntry struct {
	RecordID    int64                 `bson:"record_id" json:"record_id"`
	Attempt     int                   `bson:"attempt" json:"attempt"`
	Outcome     common.AttemptOutcome `bson:"outcome" json:"outcome"`
	Reason      string                `bson:"reason,omitempty" json:"reason,omitempty"`
	ExternalRef string                `bson:"external_ref,omitempty" json:"external_ref,omitempty"`
	AttemptedAt time.Time             `bson:"attempted_at" json:"attempted_at"`
}

// AttemptJournal records per-attempt outcomes for a record.
type AttemptJournal interface {
	Append(ctx context.Context, entry AttemptEntry) error
	ByRecord(ctx context.Context, recordID int64) ([]AttemptEntry, error)
}

type attemptStore struct {
	col *mongo.Collection
}

func NewAttemptStore(mongoClient *MongoClient) AttemptJournal {
	return &attemptStore{
		col: mongoClient.Database.Collection("publish_attempts"),
	}
}

func (s *attemptStore) Append(ctx context.Context, entry AttemptEntry) error {
	if entry.AttemptedAt.IsZero() {
		entry.AttemptedAt = time.Now()
	}

	if _, err := s.col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append attempt entry: %w", err)
	}

	return nil
}

func (s *attemptStore) ByRecord(ctx context.Context, recordID int64) ([]AttemptEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "attempted_at", Value: 1}})

	cursor, err := s.col.Find(ctx, bson.M{"record_id": recordID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempt entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []AttemptEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode attempt entries: %w", err)
	}

	return entries, nil
}
