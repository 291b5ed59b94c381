package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"evalconsole/internal/model"
)

const feedbackCollection = "feedbacks"

// FeedbackRepository stores human judgments. Records are insert-only.
type FeedbackRepository interface {
	// Create returns ErrDuplicate when the idempotency key is already taken
	Create(ctx context.Context, fb *model.Feedback) error
	GetByIdempotencyKey(ctx context.Context, key string) (*model.Feedback, error)
	// Count counts feedback with createdAt <= upTo
	Count(ctx context.Context, upTo time.Time) (int64, error)
	// CountCreatedBetween counts feedback with from <= createdAt <= to
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
}

type feedbackRepo struct {
	collection *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) FeedbackRepository {
	return &feedbackRepo{
		collection: db.Collection(feedbackCollection),
	}
}

func (r *feedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	_, err := r.collection.InsertOne(ctx, fb)
	return mapWriteErr(err)
}

func (r *feedbackRepo) GetByIdempotencyKey(ctx context.Context, key string) (*model.Feedback, error) {
	var fb model.Feedback
	err := r.collection.FindOne(ctx, bson.M{"idempotencyKey": key}).Decode(&fb)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepo) Count(ctx context.Context, upTo time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$lte": upTo}})
}

func (r *feedbackRepo) CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{
		"createdAt": bson.M{"$gte": from, "$lte": to},
	})
}
