package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"evalconsole/internal/model"
)

const (
	statsKey           = "evalconsole:stats:current"
	statsGenerationKey = "evalconsole:stats:generation"
)

// StatsCache holds the latest stats snapshot for a short TTL. Every
// Invalidate bumps a generation counter; Set drops a snapshot computed under
// an older generation so a concurrent write cannot be masked.
type StatsCache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context) (*model.Stats, error)
	// Generation is read before computing the snapshot passed to Set
	Generation(ctx context.Context) (int64, error)
	Set(ctx context.Context, stats *model.Stats, generation int64) error
	Invalidate(ctx context.Context) error
}

type statsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache creates a Redis-backed stats cache
func NewStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	return &statsCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *statsCache) Get(ctx context.Context) (*model.Stats, error) {
	data, err := c.client.Get(ctx, statsKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stats model.Stats
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *statsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, statsGenerationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (c *statsCache) Set(ctx context.Context, stats *model.Stats, generation int64) error {
	if c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		gen, err := tx.Get(ctx, statsGenerationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if gen != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, statsKey, data, c.ttl)
			return nil
		})
		return err
	}, statsGenerationKey)
	if err == redis.TxFailedErr {
		// invalidated while writing
		return nil
	}
	return err
}

func (c *statsCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, statsGenerationKey)
		pipe.Del(ctx, statsKey)
		return nil
	})
	return err
}
