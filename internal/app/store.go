package app

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"evalconsole/internal/config"
	"evalconsole/internal/logger"
	"evalconsole/internal/repository"
)

// Store bundles the durable repositories
type Store struct {
	Asks      repository.AskRepository
	Feedbacks repository.FeedbackRepository
	Models    repository.ModelRepository

	client *mongo.Client
}

// OpenStore connects the configured driver. The memory driver keeps
// everything in-process and loses it on exit.
func OpenStore(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (*Store, error) {
	if cfg.Driver == config.StoreMemory {
		log.Warn("using in-memory store; records are lost on exit")
		return &Store{
			Asks:      repository.NewMemoryAskRepository(),
			Feedbacks: repository.NewMemoryFeedbackRepository(),
			Models:    repository.NewMemoryModelRepository(),
		}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	log.Info("connected to mongodb", "db", cfg.MongoDB)

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db, log); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return &Store{
		Asks:      repository.NewAskRepository(db),
		Feedbacks: repository.NewFeedbackRepository(db),
		Models:    repository.NewModelRepository(db),
		client:    client,
	}, nil
}

// Close disconnects from MongoDB; a no-op for the memory driver
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}
