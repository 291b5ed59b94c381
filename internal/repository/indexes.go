package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"evalconsole/internal/logger"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// idempotency index is required, the rest only speed up reads.
func EnsureIndexes(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	asks := db.Collection(askCollection)
	feedbacks := db.Collection(feedbackCollection)
	models := db.Collection(modelCollection)

	createIndex(ctx, log, asks, bson.D{{Key: "servedPolicy", Value: 1}}, nil)
	createIndex(ctx, log, asks, bson.D{{Key: "createdAt", Value: -1}}, nil)
	createIndex(ctx, log, feedbacks, bson.D{{Key: "createdAt", Value: -1}}, nil)
	createIndex(ctx, log, feedbacks, bson.D{{Key: "questionId", Value: 1}}, nil)
	createIndex(ctx, log, models, bson.D{{Key: "trainedAt", Value: -1}}, nil)

	idem := options.Index().
		SetName("uniq_idempotency_key").
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}})
	_, err := feedbacks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "idempotencyKey", Value: 1}},
		Options: idem,
	})
	return err
}

func createIndex(ctx context.Context, log *logger.Logger, coll *mongo.Collection, keys bson.D, opts *options.IndexOptions) {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: opts})
	if err != nil {
		log.Warn("failed to create index", "collection", coll.Name(), "error", err)
	}
}
