package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalconsole/internal/apperr"
	"evalconsole/internal/config"
	"evalconsole/internal/model"
	"evalconsole/internal/provider"
)

func TestAskRuleScenario(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	res, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{})
	require.NoError(t, err)

	assert.Equal(t, model.PolicyRule, res.ServedPolicy)
	assert.Empty(t, res.ServedModelVersion)
	assert.NotEqual(t, res.CandidateA.ID, res.CandidateB.ID)
	assert.Equal(t, "alpha", res.CandidateA.Provider)
	assert.Equal(t, "beta", res.CandidateB.Provider)
	assert.Equal(t, res.CandidateB.ID, res.ServedChoiceCandidateID, "structured answer wins under rule")
	assert.Equal(t, richAnswer, res.SelectedAnswerSummary)

	rec, err := f.asks.GetByID(ctx, res.QuestionID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "How do I cache a DB query?", rec.QuestionText)
	assert.Len(t, rec.QuestionTextHash, 64)
	assert.Equal(t, "fv1", rec.FeatureVersion)
	assert.Equal(t, rec.ServedChoiceCandidateID, rec.RuleChoiceCandidateID)
	assert.Empty(t, rec.LTRChoiceCandidateID)
	assert.True(t, rec.CandidateB.Features.HasCode)
	assert.Equal(t, f.clock, rec.CreatedAt)

	assert.Equal(t, []string{EventAskCreated}, f.events.types())
}

func TestAskRuleIsReproducible(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	first, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{})
	require.NoError(t, err)
	second, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{})
	require.NoError(t, err)

	firstServedB := first.ServedChoiceCandidateID == first.CandidateB.ID
	secondServedB := second.ServedChoiceCandidateID == second.CandidateB.ID
	assert.Equal(t, firstServedB, secondServedB)

	again, err := f.selector.RuleChoice(&first.CandidateA, &first.CandidateB)
	require.NoError(t, err)
	assert.Equal(t, first.ServedChoiceCandidateID, again)
}

func TestAskValidation(t *testing.T) {
	f := defaultFixture(t)
	tests := []struct {
		name   string
		mutate func(*model.Question)
	}{
		{"bad role", func(q *model.Question) { q.User.Role = "manager" }},
		{"bad level", func(q *model.Question) { q.User.Level = "" }},
		{"bad goal", func(q *model.Question) { q.Context.Goal = "fun" }},
		{"blank question", func(q *model.Question) { q.Text = "  \n " }},
		{"blank domain", func(q *model.Question) { q.Domain = "" }},
		{"long domain", func(q *model.Question) { q.Domain = strings.Repeat("d", 51) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := sampleQuestion()
			tt.mutate(&q)
			_, err := f.askSvc.Ask(context.Background(), q, AskOptions{})
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
	n, _ := f.asks.CountByPolicy(context.Background(), model.PolicyRule, f.clock)
	assert.Zero(t, n)
}

func TestAskLTRWithoutModelCreatesNoRecord(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	_, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{Policy: model.PolicyLTR})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPolicyResolution))

	n, err := f.asks.CountByPolicy(ctx, model.PolicyLTR, f.clock)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.asks.CountByPolicy(ctx, model.PolicyRule, f.clock)
	require.NoError(t, err)
	assert.Zero(t, n, "must not fall back to rule")
	assert.Empty(t, f.events.types())
}

func TestAskLTRUsesLatestModel(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// older model prefers code, newer one penalizes it
	f.registerModel(t, "lr_old", t0, map[string]float64{"has_code_diff": 5})
	f.registerModel(t, "lr_new", t0.Add(time.Hour), map[string]float64{"has_code_diff": -5})

	res, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{Policy: model.PolicyLTR})
	require.NoError(t, err)
	assert.Equal(t, model.PolicyLTR, res.ServedPolicy)
	assert.Equal(t, "lr_new", res.ServedModelVersion)
	assert.Equal(t, res.CandidateA.ID, res.ServedChoiceCandidateID)

	rec, err := f.asks.GetByID(ctx, res.QuestionID)
	require.NoError(t, err)
	assert.Equal(t, res.CandidateA.ID, rec.LTRChoiceCandidateID)
	assert.Equal(t, res.CandidateB.ID, rec.RuleChoiceCandidateID, "rule choice is kept for audit")

	pinned, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{Policy: model.PolicyLTR, ModelVersion: "lr_old"})
	require.NoError(t, err)
	assert.Equal(t, "lr_old", pinned.ServedModelVersion)
	assert.Equal(t, pinned.CandidateB.ID, pinned.ServedChoiceCandidateID)
}

func TestAskLTRConfigPin(t *testing.T) {
	f := defaultFixture(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f.registerModel(t, "lr_pinned", t0, map[string]float64{"len_words_diff": 1})
	f.registerModel(t, "lr_latest", t0.Add(time.Hour), map[string]float64{"len_words_diff": 1})
	f.selector.pinnedVersion = "lr_pinned"

	res, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{Policy: model.PolicyLTR})
	require.NoError(t, err)
	assert.Equal(t, "lr_pinned", res.ServedModelVersion)
}

func TestAskLTRUnknownPinnedVersion(t *testing.T) {
	f := defaultFixture(t)
	f.registerModel(t, "lr_1", time.Now(), map[string]float64{"len_words_diff": 1})

	_, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{Policy: model.PolicyLTR, ModelVersion: "missing"})
	assert.True(t, apperr.Is(err, apperr.KindPolicyResolution))
}

func TestAskLTRTieFavorsCandidateA(t *testing.T) {
	same := "Step 1: identical answer text that is long enough to score."
	f := newFixture(t, &fakeProvider{name: "alpha", answer: same}, &fakeProvider{name: "beta", answer: same})
	f.registerModel(t, "lr_1", time.Now(), map[string]float64{"len_words_diff": 0.3, "has_code_diff": 1})

	res, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{Policy: model.PolicyLTR})
	require.NoError(t, err)
	assert.Equal(t, res.CandidateA.ID, res.ServedChoiceCandidateID)

	rule, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{Policy: model.PolicyRule})
	require.NoError(t, err)
	assert.Equal(t, rule.CandidateA.ID, rule.ServedChoiceCandidateID)
}

func TestAskModelVersionIgnoredUnderRule(t *testing.T) {
	f := defaultFixture(t)
	res, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{ModelVersion: "whatever"})
	require.NoError(t, err)
	assert.Equal(t, model.PolicyRule, res.ServedPolicy)
	assert.Empty(t, res.ServedModelVersion)
}

func TestAskProviderFailureCreatesNoRecord(t *testing.T) {
	tests := []struct {
		name string
		b    *fakeProvider
	}{
		{"error", &fakeProvider{name: "beta", err: errors.New("upstream 500")}},
		{"empty answer", &fakeProvider{name: "beta", answer: "   "}},
		{"timeout", &fakeProvider{name: "beta", answer: richAnswer, delay: 2 * time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &fakeProvider{name: "alpha", answer: shortAnswer}, tt.b)
			_, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{})
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindProvider), "got %v", err)
			assert.Contains(t, apperr.Detail(err), "beta")

			n, _ := f.asks.CountByPolicy(context.Background(), model.PolicyRule, f.clock)
			assert.Zero(t, n)
		})
	}
}

func TestAskConcurrentIDsAreDistinct(t *testing.T) {
	f := defaultFixture(t)
	const calls = 64

	var mu sync.Mutex
	questionIDs := map[string]bool{}
	candidateIDs := map[string]bool{}

	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			questionIDs[res.QuestionID] = true
			candidateIDs[res.CandidateA.ID] = true
			candidateIDs[res.CandidateB.ID] = true
		}()
	}
	wg.Wait()

	assert.Len(t, questionIDs, calls)
	assert.Len(t, candidateIDs, 2*calls)
}

func TestAskProviderFailureKeepsAPIKeyOutOfDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	const apiKey = "SUPERSECRETKEY"
	gemini := provider.NewGeminiProvider(config.ProviderConfig{APIKey: apiKey, BaseURL: srv.URL, Model: "gemini-x"})
	f := newFixture(t, &fakeProvider{name: "alpha", answer: shortAnswer}, gemini)

	_, err := f.askSvc.Ask(context.Background(), sampleQuestion(), AskOptions{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindProvider), "got %v", err)
	assert.Equal(t, "candidate source gemini timed out", apperr.Detail(err))
	assert.NotContains(t, err.Error(), apiKey)
}

func TestAskLTRRejectsModelWithUnknownWeights(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()
	f.registerModel(t, "lr_bad", f.clock.Add(-time.Hour), map[string]float64{"len_words": 5, "has_code": 9})

	_, err := f.askSvc.Ask(ctx, sampleQuestion(), AskOptions{Policy: model.PolicyLTR})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindPolicyResolution), "got %v", err)
	assert.Contains(t, apperr.Detail(err), "lr_bad")

	n, err := f.asks.CountByPolicy(ctx, model.PolicyLTR, f.clock)
	require.NoError(t, err)
	assert.Zero(t, n)
}
