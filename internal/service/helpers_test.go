package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"evalconsole/internal/cache"
	"evalconsole/internal/logger"
	"evalconsole/internal/model"
	"evalconsole/internal/provider"
	"evalconsole/internal/ranking"
	"evalconsole/internal/repository"
)

// fakeProvider answers with a fixed text, optionally after a delay or with an error
type fakeProvider struct {
	name   string
	answer string
	delay  time.Duration
	err    error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Generate(ctx context.Context, req provider.Request) (*provider.Result, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &provider.Result{Provider: p.name, Model: p.name + "-model", Answer: p.answer, LatencyMS: 1}, nil
}

type recordedEvent struct {
	Type    string
	Payload interface{}
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *fakeBroadcaster) Broadcast(msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Type: msgType, Payload: payload})
}

func (b *fakeBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.Type
	}
	return out
}

const (
	shortAnswer = "Use a map."
	richAnswer  = "Step 1: put a cache in front of the query.\n- keep keys small\n```go\ncache.Get(k)\n```"
)

type fixture struct {
	asks        repository.AskRepository
	feedbacks   repository.FeedbackRepository
	models      repository.ModelRepository
	statsCache  cache.StatsCache
	leaderboard cache.LeaderboardCache
	engines     *provider.Registry
	selector    *Selector
	askSvc      *AskService
	feedbackSvc *FeedbackService
	statsSvc    *StatsService
	registrySvc *RegistryService
	events      *fakeBroadcaster
	artifacts   string
	clock       time.Time
}

func newFixture(t *testing.T, a, b provider.Provider) *fixture {
	t.Helper()
	f := &fixture{
		asks:        repository.NewMemoryAskRepository(),
		feedbacks:   repository.NewMemoryFeedbackRepository(),
		models:      repository.NewMemoryModelRepository(),
		statsCache:  cache.NewMemoryStatsCache(time.Minute),
		leaderboard: cache.NewMemoryLeaderboard(),
		engines:     provider.NewRegistry(),
		events:      &fakeBroadcaster{},
		artifacts:   t.TempDir(),
		clock:       time.Date(2026, 4, 10, 15, 30, 0, 0, time.UTC),
	}
	log := logger.Nop()
	now := func() time.Time { return f.clock }

	f.engines.Register(a, 200*time.Millisecond)
	f.engines.Register(b, 200*time.Millisecond)

	f.selector = NewSelector(f.models, ranking.NewArtifactLoader(f.artifacts), "", nil, log)
	f.askSvc = NewAskService(f.asks, f.engines, a.Name(), b.Name(), f.selector, model.PolicyRule, f.statsCache, log)
	f.askSvc.now = now
	f.askSvc.SetBroadcaster(f.events)
	f.feedbackSvc = NewFeedbackService(f.asks, f.feedbacks, f.leaderboard, f.statsCache, log)
	f.feedbackSvc.now = now
	f.feedbackSvc.SetBroadcaster(f.events)
	f.statsSvc = NewStatsService(f.asks, f.feedbacks, f.statsCache, time.UTC, log)
	f.statsSvc.now = now
	f.registrySvc = NewRegistryService(f.models, log)
	return f
}

func defaultFixture(t *testing.T) *fixture {
	return newFixture(t,
		&fakeProvider{name: "alpha", answer: shortAnswer},
		&fakeProvider{name: "beta", answer: richAnswer},
	)
}

// registerModel writes an LR artifact and registers it
func (f *fixture) registerModel(t *testing.T, version string, trainedAt time.Time, weights map[string]float64) {
	t.Helper()
	rel := filepath.Join("models", version+".json")
	require.NoError(t, os.MkdirAll(filepath.Join(f.artifacts, "models"), 0o755))
	body := `{"bias": 0, "weights": {`
	first := true
	for k, v := range weights {
		if !first {
			body += ","
		}
		body += fmt.Sprintf("%q: %g", k, v)
		first = false
	}
	body += "}}"
	require.NoError(t, os.WriteFile(filepath.Join(f.artifacts, rel), []byte(body), 0o600))
	require.NoError(t, f.registrySvc.Register(context.Background(), &model.ModelRecord{
		ModelVersion:   version,
		FeatureVersion: ranking.FeatureVersionV1,
		ArtifactPath:   rel,
		TrainedAt:      trainedAt,
		Metrics:        map[string]interface{}{"accuracy": 0.7},
	}))
}

func sampleQuestion() model.Question {
	return model.Question{
		User:    model.UserContext{Role: model.RoleDev, Level: model.LevelBeginner},
		Context: model.TaskContext{Goal: model.GoalPractice},
		Text:    "How do I cache a DB query?",
		Domain:  "backend",
	}
}
