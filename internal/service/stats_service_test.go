package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalconsole/internal/cache"
	"evalconsole/internal/logger"
	"evalconsole/internal/model"
)

func seedFeedback(t *testing.T, f *fixture, id string, at time.Time) {
	t.Helper()
	require.NoError(t, f.feedbacks.Create(context.Background(), &model.Feedback{
		FeedbackID: id,
		QuestionID: "q-" + id,
		UserChoice: model.ChoiceA,
		CreatedAt:  at,
	}))
}

func TestStatsTodayBoundaryFollowsTimezone(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	// clock is 15:30 UTC, which is already the next day at UTC+9
	seedFeedback(t, f, "yesterday", time.Date(2026, 4, 9, 23, 0, 0, 0, time.UTC))
	seedFeedback(t, f, "before-kst-midnight", time.Date(2026, 4, 10, 14, 59, 0, 0, time.UTC))
	seedFeedback(t, f, "after-kst-midnight", time.Date(2026, 4, 10, 15, 10, 0, 0, time.UTC))

	utc, err := f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, utc.TotalFeedbacks)
	assert.EqualValues(t, 2, utc.TodayFeedbacks)
	assert.Equal(t, "UTC", utc.Timezone)

	kst := time.FixedZone("KST", 9*60*60)
	svc := NewStatsService(f.asks, f.feedbacks, f.statsCache, kst, logger.Nop())
	svc.now = func() time.Time { return f.clock }
	require.NoError(t, f.statsCache.Invalidate(ctx))

	local, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, local.TotalFeedbacks)
	assert.EqualValues(t, 1, local.TodayFeedbacks)
	assert.Equal(t, "KST", local.Timezone)
	assert.Equal(t, 11, local.AsOf.Day())
}

func TestStatsAsOfIsNotCached(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	seedFeedback(t, f, "early", time.Date(2026, 4, 9, 8, 0, 0, 0, time.UTC))
	seedFeedback(t, f, "late", time.Date(2026, 4, 9, 20, 0, 0, 0, time.UTC))

	asOf := time.Date(2026, 4, 9, 12, 0, 0, 0, time.UTC)
	past, err := f.statsSvc.Stats(ctx, &asOf)
	require.NoError(t, err)
	assert.EqualValues(t, 1, past.TodayFeedbacks)
	assert.True(t, past.AsOf.Equal(asOf))

	cached, err := f.statsCache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)

	current, err := f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, current.TodayFeedbacks)
}

func TestStatsCacheInvalidatedByWrites(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	first, err := f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, first.RuleServed)

	// a write that bypasses the services leaves the snapshot stale
	seedFeedback(t, f, "direct", f.clock)
	stale, err := f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, stale.TotalFeedbacks)

	res := askOnce(t, f)
	afterAsk, err := f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, afterAsk.RuleServed)
	assert.Zero(t, afterAsk.LTRServed)
	assert.EqualValues(t, 1, afterAsk.TotalFeedbacks)

	_, err = f.feedbackSvc.Record(ctx, feedbackFor(res, model.ChoiceBad))
	require.NoError(t, err)
	afterFeedback, err := f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, afterFeedback.TotalFeedbacks)
	assert.EqualValues(t, 2, afterFeedback.TodayFeedbacks)
}

func TestStatsCountsServedPolicies(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	f.registerModel(t, "lr_1", f.clock.Add(-time.Hour), map[string]float64{"has_code_diff": 1})

	for i := 0; i < 2; i++ {
		_, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{})
		require.NoError(t, err)
	}
	_, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{Policy: model.PolicyLTR})
	require.NoError(t, err)

	stats, err := f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.RuleServed)
	assert.EqualValues(t, 1, stats.LTRServed)
}

func TestStartOfDay(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	got := StartOfDay(time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC), kst)
	assert.True(t, got.Equal(time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)))
}

func TestStatsAsOfIsPointInTime(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	res := askOnce(t, f)
	_, err := f.feedbackSvc.Record(ctx, feedbackFor(res, model.ChoiceA))
	require.NoError(t, err)

	before := f.clock.Add(-48 * time.Hour)
	past, err := f.statsSvc.Stats(ctx, &before)
	require.NoError(t, err)
	assert.Zero(t, past.TotalFeedbacks)
	assert.Zero(t, past.TodayFeedbacks)
	assert.Zero(t, past.RuleServed)
	assert.Zero(t, past.LTRServed)

	at := f.clock
	current, err := f.statsSvc.Stats(ctx, &at)
	require.NoError(t, err)
	assert.EqualValues(t, 1, current.TotalFeedbacks)
	assert.EqualValues(t, 1, current.TodayFeedbacks)
	assert.EqualValues(t, 1, current.RuleServed)
}

// racingStatsCache lets a write invalidate the cache right after the stats
// service has read the generation
type racingStatsCache struct {
	cache.StatsCache
}

func (c racingStatsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.StatsCache.Generation(ctx)
	if err != nil {
		return 0, err
	}
	return gen, c.StatsCache.Invalidate(ctx)
}

func TestStatsConcurrentInvalidateKeepsCacheEmpty(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	racing := racingStatsCache{StatsCache: f.statsCache}
	svc := NewStatsService(f.asks, f.feedbacks, racing, time.UTC, logger.Nop())
	svc.now = func() time.Time { return f.clock }

	_, err := svc.Stats(ctx, nil)
	require.NoError(t, err)
	cached, err := f.statsCache.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, cached)

	_, err = f.statsSvc.Stats(ctx, nil)
	require.NoError(t, err)
	cached, err = f.statsCache.Get(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cached)
}
