package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"evalconsole/internal/model"
)

const leaderboardKey = "evalconsole:providers:wins"

// LeaderboardCache counts feedback wins per provider in a Redis ZSET. The
// counts are a live approximation; the feedback collection is the source of
// truth.
type LeaderboardCache interface {
	AddWin(ctx context.Context, provider string) error
	GetTop(ctx context.Context, limit int) ([]model.ProviderStanding, error)
	GetRank(ctx context.Context, provider string) (int64, error)
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) AddWin(ctx context.Context, provider string) error {
	return c.client.ZIncrBy(ctx, leaderboardKey, 1, provider).Err()
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]model.ProviderStanding, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.ProviderStanding, len(results))
	for i, z := range results {
		entries[i] = model.ProviderStanding{
			Provider: z.Member.(string),
			Wins:     int64(z.Score),
			Rank:     i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, provider string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, leaderboardKey, provider).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
