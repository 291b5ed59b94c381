package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"evalconsole/internal/model"
)

const askCollection = "ask_records"

// AskRepository stores ask outcomes. Records are insert-only.
type AskRepository interface {
	Create(ctx context.Context, rec *model.AskRecord) error
	// GetByID returns nil, nil when the question does not exist
	GetByID(ctx context.Context, questionID string) (*model.AskRecord, error)
	// CountByPolicy counts records served under policy with createdAt <= upTo
	CountByPolicy(ctx context.Context, policy model.PolicyKind, upTo time.Time) (int64, error)
}

type askRepo struct {
	collection *mongo.Collection
}

func NewAskRepository(db *mongo.Database) AskRepository {
	return &askRepo{
		collection: db.Collection(askCollection),
	}
}

// Create writes the whole record, both candidates included, in one insert
func (r *askRepo) Create(ctx context.Context, rec *model.AskRecord) error {
	_, err := r.collection.InsertOne(ctx, rec)
	return mapWriteErr(err)
}

func (r *askRepo) GetByID(ctx context.Context, questionID string) (*model.AskRecord, error) {
	var rec model.AskRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": questionID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *askRepo) CountByPolicy(ctx context.Context, policy model.PolicyKind, upTo time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"servedPolicy": policy,
		"createdAt":    bson.M{"$lte": upTo},
	})
}
