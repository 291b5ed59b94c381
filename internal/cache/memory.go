package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"evalconsole/internal/model"
)

// In-process caches, used when no Redis address is configured

type memoryStatsCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	stats      *model.Stats
	expires    time.Time
	generation int64
}

func NewMemoryStatsCache(ttl time.Duration) StatsCache {
	return &memoryStatsCache{ttl: ttl, now: time.Now}
}

func (c *memoryStatsCache) Get(context.Context) (*model.Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stats == nil || !c.now().Before(c.expires) {
		return nil, nil
	}
	s := *c.stats
	return &s, nil
}

func (c *memoryStatsCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation, nil
}

func (c *memoryStatsCache) Set(_ context.Context, stats *model.Stats, generation int64) error {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return nil
	}
	s := *stats
	c.stats = &s
	c.expires = c.now().Add(c.ttl)
	return nil
}

func (c *memoryStatsCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.stats = nil
	return nil
}

type memoryLeaderboard struct {
	mu   sync.Mutex
	wins map[string]int64
}

func NewMemoryLeaderboard() LeaderboardCache {
	return &memoryLeaderboard{wins: make(map[string]int64)}
}

func (c *memoryLeaderboard) AddWin(_ context.Context, provider string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wins[provider]++
	return nil
}

func (c *memoryLeaderboard) GetTop(_ context.Context, limit int) ([]model.ProviderStanding, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.sorted()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (c *memoryLeaderboard) GetRank(_ context.Context, provider string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.sorted() {
		if e.Provider == provider {
			return int64(e.Rank), nil
		}
	}
	return -1, nil
}

// sorted orders like ZREVRANGE: score desc, then member desc
func (c *memoryLeaderboard) sorted() []model.ProviderStanding {
	entries := make([]model.ProviderStanding, 0, len(c.wins))
	for p, w := range c.wins {
		entries = append(entries, model.ProviderStanding{Provider: p, Wins: w})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Provider > entries[j].Provider
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
