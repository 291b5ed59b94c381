package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"evalconsole/internal/model"
)

const modelCollection = "models"

// ModelRepository is the LTR model registry. Entries are written once by the
// training pipeline and only read by the server.
type ModelRepository interface {
	// Create returns ErrDuplicate for an already registered version
	Create(ctx context.Context, rec *model.ModelRecord) error
	GetByVersion(ctx context.Context, version string) (*model.ModelRecord, error)
	// Latest returns the entry with the greatest trainedAt, or nil, nil
	Latest(ctx context.Context) (*model.ModelRecord, error)
	// List returns all entries newest first
	List(ctx context.Context) ([]*model.ModelRecord, error)
}

type modelRepo struct {
	collection *mongo.Collection
}

func NewModelRepository(db *mongo.Database) ModelRepository {
	return &modelRepo{
		collection: db.Collection(modelCollection),
	}
}

func (r *modelRepo) Create(ctx context.Context, rec *model.ModelRecord) error {
	_, err := r.collection.InsertOne(ctx, rec)
	return mapWriteErr(err)
}

func (r *modelRepo) GetByVersion(ctx context.Context, version string) (*model.ModelRecord, error) {
	var rec model.ModelRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": version}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *modelRepo) Latest(ctx context.Context) (*model.ModelRecord, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "trainedAt", Value: -1}, {Key: "_id", Value: -1}})
	var rec model.ModelRecord
	err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *modelRepo) List(ctx context.Context) ([]*model.ModelRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "trainedAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var recs []*model.ModelRecord
	if err = cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
