package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"evalconsole/internal/model"
)

// Memory implementations back the memory store driver and tests. They keep
// the same contracts as the Mongo repositories, including unique keys.

type memoryAskRepo struct {
	mu   sync.RWMutex
	recs map[string]model.AskRecord
}

func NewMemoryAskRepository() AskRepository {
	return &memoryAskRepo{recs: make(map[string]model.AskRecord)}
}

func (r *memoryAskRepo) Create(_ context.Context, rec *model.AskRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[rec.QuestionID]; ok {
		return ErrDuplicate
	}
	r.recs[rec.QuestionID] = *rec
	return nil
}

func (r *memoryAskRepo) GetByID(_ context.Context, questionID string) (*model.AskRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[questionID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memoryAskRepo) CountByPolicy(_ context.Context, policy model.PolicyKind, upTo time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, rec := range r.recs {
		if rec.ServedPolicy == policy && !rec.CreatedAt.After(upTo) {
			n++
		}
	}
	return n, nil
}

type memoryFeedbackRepo struct {
	mu    sync.RWMutex
	items []model.Feedback
	byKey map[string]int
}

func NewMemoryFeedbackRepository() FeedbackRepository {
	return &memoryFeedbackRepo{byKey: make(map[string]int)}
}

func (r *memoryFeedbackRepo) Create(_ context.Context, fb *model.Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if fb.IdempotencyKey != "" {
		if _, ok := r.byKey[fb.IdempotencyKey]; ok {
			return ErrDuplicate
		}
		r.byKey[fb.IdempotencyKey] = len(r.items)
	}
	cp := *fb
	cp.ReasonTags = append([]string(nil), fb.ReasonTags...)
	r.items = append(r.items, cp)
	return nil
}

func (r *memoryFeedbackRepo) GetByIdempotencyKey(_ context.Context, key string) (*model.Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byKey[key]
	if !ok {
		return nil, nil
	}
	fb := r.items[i]
	return &fb, nil
}

func (r *memoryFeedbackRepo) Count(_ context.Context, upTo time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, fb := range r.items {
		if !fb.CreatedAt.After(upTo) {
			n++
		}
	}
	return n, nil
}

func (r *memoryFeedbackRepo) CountCreatedBetween(_ context.Context, from, to time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, fb := range r.items {
		if !fb.CreatedAt.Before(from) && !fb.CreatedAt.After(to) {
			n++
		}
	}
	return n, nil
}

type memoryModelRepo struct {
	mu   sync.RWMutex
	recs map[string]model.ModelRecord
}

func NewMemoryModelRepository() ModelRepository {
	return &memoryModelRepo{recs: make(map[string]model.ModelRecord)}
}

func (r *memoryModelRepo) Create(_ context.Context, rec *model.ModelRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recs[rec.ModelVersion]; ok {
		return ErrDuplicate
	}
	r.recs[rec.ModelVersion] = *rec
	return nil
}

func (r *memoryModelRepo) GetByVersion(_ context.Context, version string) (*model.ModelRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.recs[version]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *memoryModelRepo) Latest(ctx context.Context) (*model.ModelRecord, error) {
	recs, _ := r.List(ctx)
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

func (r *memoryModelRepo) List(_ context.Context) ([]*model.ModelRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.ModelRecord, 0, len(r.recs))
	for _, rec := range r.recs {
		rec := rec
		out = append(out, &rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TrainedAt.Equal(out[j].TrainedAt) {
			return out[i].TrainedAt.After(out[j].TrainedAt)
		}
		return out[i].ModelVersion > out[j].ModelVersion
	})
	return out, nil
}
