package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalconsole/internal/model"
)

func TestMemoryAskRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAskRepository()

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &model.AskRecord{QuestionID: "q1", ServedPolicy: model.PolicyRule, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, &model.AskRecord{QuestionID: "q2", ServedPolicy: model.PolicyLTR, CreatedAt: t0}))
	require.NoError(t, repo.Create(ctx, &model.AskRecord{QuestionID: "q3", ServedPolicy: model.PolicyRule, CreatedAt: t0.Add(time.Hour)}))
	assert.ErrorIs(t, repo.Create(ctx, &model.AskRecord{QuestionID: "q1"}), ErrDuplicate)

	got, err := repo.GetByID(ctx, "q2")
	require.NoError(t, err)
	assert.Equal(t, model.PolicyLTR, got.ServedPolicy)

	n, err := repo.CountByPolicy(ctx, model.PolicyRule, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.CountByPolicy(ctx, model.PolicyRule, t0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "records created after upTo are not counted")
}

func TestMemoryFeedbackRepositoryIdempotencyKeyIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFeedbackRepository()

	var wg sync.WaitGroup
	var mu sync.Mutex
	dupes := 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Create(ctx, &model.Feedback{FeedbackID: fmt.Sprint(i), IdempotencyKey: "k"})
			if err == ErrDuplicate {
				mu.Lock()
				dupes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 15, dupes)

	// feedback without a key never collides
	require.NoError(t, repo.Create(ctx, &model.Feedback{FeedbackID: "x"}))
	require.NoError(t, repo.Create(ctx, &model.Feedback{FeedbackID: "y"}))

	n, err := repo.Count(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	fb, err := repo.GetByIdempotencyKey(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, fb)
	assert.Equal(t, "k", fb.IdempotencyKey)
}

func TestMemoryFeedbackCountCreatedBetween(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFeedbackRepository()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{-time.Minute, 0, time.Hour, 25 * time.Hour} {
		require.NoError(t, repo.Create(ctx, &model.Feedback{FeedbackID: fmt.Sprint(i), CreatedAt: base.Add(offset)}))
	}

	n, err := repo.CountCreatedBetween(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.Count(ctx, base)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestMemoryModelRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryModelRepository()

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &model.ModelRecord{ModelVersion: "old", TrainedAt: t0}))
	require.NoError(t, repo.Create(ctx, &model.ModelRecord{ModelVersion: "new", TrainedAt: t0.Add(time.Hour)}))
	assert.ErrorIs(t, repo.Create(ctx, &model.ModelRecord{ModelVersion: "old"}), ErrDuplicate)

	latest, err = repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", latest.ModelVersion)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "old", all[1].ModelVersion)

	got, err := repo.GetByVersion(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, t0, got.TrainedAt)
}
