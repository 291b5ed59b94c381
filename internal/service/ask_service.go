package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"evalconsole/internal/apperr"
	"evalconsole/internal/cache"
	"evalconsole/internal/logger"
	"evalconsole/internal/metrics"
	"evalconsole/internal/model"
	"evalconsole/internal/provider"
	"evalconsole/internal/ranking"
	"evalconsole/internal/repository"
)

// AskOptions are request-scoped serving overrides. They never change the
// process defaults.
type AskOptions struct {
	// Policy overrides the default serving arm when non-empty
	Policy model.PolicyKind
	// ModelVersion pins the ltr model for this request; ignored under rule
	ModelVersion string
}

// Engines resolves the engine names configured for candidates A and B
type Engines interface {
	Get(name string) (provider.Provider, error)
}

// AskService orchestrates one ask: generate two candidates, select, persist
type AskService struct {
	askRepo       repository.AskRepository
	engines       Engines
	engineA       string
	engineB       string
	selector      *Selector
	defaultPolicy model.PolicyKind
	statsCache    cache.StatsCache
	broadcaster   Broadcaster
	log           *logger.Logger
	now           func() time.Time
}

// NewAskService creates a new ask orchestrator
func NewAskService(
	askRepo repository.AskRepository,
	engines Engines,
	engineA, engineB string,
	selector *Selector,
	defaultPolicy model.PolicyKind,
	statsCache cache.StatsCache,
	log *logger.Logger,
) *AskService {
	return &AskService{
		askRepo:       askRepo,
		engines:       engines,
		engineA:       engineA,
		engineB:       engineB,
		selector:      selector,
		defaultPolicy: defaultPolicy,
		statsCache:    statsCache,
		log:           log.With("service", "AskService"),
		now:           time.Now,
	}
}

// SetBroadcaster sets the broadcaster for console events
func (s *AskService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Ask runs one interaction. On any error nothing is persisted.
func (s *AskService) Ask(ctx context.Context, q model.Question, opts AskOptions) (*model.AskResult, error) {
	res, err := s.ask(ctx, q, opts)
	if err != nil {
		metrics.AskFailures.WithLabelValues(string(apperr.KindOf(err))).Inc()
		return nil, err
	}
	return res, nil
}

func (s *AskService) ask(ctx context.Context, q model.Question, opts AskOptions) (*model.AskResult, error) {
	q, err := NormalizeQuestion(q)
	if err != nil {
		return nil, err
	}

	kind := s.defaultPolicy
	if opts.Policy != "" {
		kind = opts.Policy
	}
	policy, err := s.selector.Resolve(ctx, model.NewServingPolicy(kind, opts.ModelVersion))
	if err != nil {
		return nil, err
	}

	questionID := uuid.NewString()
	system, user := provider.BuildPrompts(q)
	req := provider.Request{
		QuestionID:   questionID,
		Question:     q,
		SystemPrompt: system,
		UserPrompt:   user,
	}

	a, b, err := s.generatePair(ctx, req)
	if err != nil {
		return nil, err
	}

	sel, err := s.selector.Select(policy, a, b)
	if err != nil {
		return nil, err
	}

	rec := &model.AskRecord{
		QuestionID:              questionID,
		User:                    q.User,
		Context:                 q.Context,
		QuestionText:            q.Text,
		QuestionTextHash:        sha256Hex(q.Text),
		Domain:                  q.Domain,
		CandidateA:              *a,
		CandidateB:              *b,
		ServedPolicy:            policy.Kind,
		ServedChoiceCandidateID: sel.ChosenID,
		FeatureVersion:          ranking.CurrentFeatureVersion,
		RuleChoiceCandidateID:   sel.RuleChoiceID,
		LTRChoiceCandidateID:    sel.LTRChoiceID,
		CreatedAt:               s.now().UTC(),
	}
	if policy.Kind == model.PolicyLTR {
		rec.ServedModelVersion = policy.ModelVersion
	}

	if err := s.askRepo.Create(ctx, rec); err != nil {
		return nil, apperr.Internal(err, "failed to persist ask record")
	}

	metrics.AsksServed.WithLabelValues(string(policy.Kind)).Inc()
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate stats cache", "error", err)
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(EventAskCreated, map[string]interface{}{
			"question_id":   rec.QuestionID,
			"served_policy": rec.ServedPolicy,
		})
	}
	s.log.Info("ask served",
		"question_id", rec.QuestionID,
		"policy", policy.String(),
		"served", sel.ChosenID,
		"rule_choice", sel.RuleChoiceID,
		"score_a", sel.ScoreA,
		"score_b", sel.ScoreB,
		"prompt_version", provider.PromptVersion,
		"provider_a", a.Provider,
		"provider_b", b.Provider,
	)

	served := rec.ServedCandidate()
	return &model.AskResult{
		QuestionID:              rec.QuestionID,
		CandidateA:              rec.CandidateA,
		CandidateB:              rec.CandidateB,
		ServedChoiceCandidateID: rec.ServedChoiceCandidateID,
		ServedPolicy:            rec.ServedPolicy,
		ServedModelVersion:      rec.ServedModelVersion,
		SelectedAnswerSummary:   strings.TrimSpace(served.AnswerText),
	}, nil
}

// generatePair calls both engines concurrently. The first failure cancels
// the other call, and the ask fails as a whole.
func (s *AskService) generatePair(ctx context.Context, req provider.Request) (*model.Candidate, *model.Candidate, error) {
	engineA, err := s.engines.Get(s.engineA)
	if err != nil {
		return nil, nil, apperr.Provider(err, "candidate source %s is unavailable", s.engineA)
	}
	engineB, err := s.engines.Get(s.engineB)
	if err != nil {
		return nil, nil, apperr.Provider(err, "candidate source %s is unavailable", s.engineB)
	}

	var a, b *model.Candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.generate(gctx, engineA, req)
		a = c
		return err
	})
	g.Go(func() error {
		c, err := s.generate(gctx, engineB, req)
		b = c
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (s *AskService) generate(ctx context.Context, p provider.Provider, req provider.Request) (*model.Candidate, error) {
	start := time.Now()
	res, err := p.Generate(ctx, req)
	metrics.ProviderLatency.WithLabelValues(p.Name()).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(p.Name()).Inc()
		s.log.Warn("candidate generation failed", "question_id", req.QuestionID, "provider", p.Name(), "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Provider(err, "candidate source %s timed out", p.Name())
		}
		return nil, apperr.Provider(err, "candidate source %s failed", p.Name())
	}
	answer := strings.TrimSpace(res.Answer)
	if answer == "" {
		metrics.ProviderErrors.WithLabelValues(p.Name()).Inc()
		return nil, apperr.Provider(nil, "candidate source %s returned an empty answer", p.Name())
	}

	providerName := res.Provider
	if providerName == "" {
		providerName = p.Name()
	}
	return &model.Candidate{
		ID:         uuid.NewString(),
		Provider:   providerName,
		Model:      res.Model,
		AnswerText: answer,
		AnswerHash: sha256Hex(answer),
		LatencyMS:  res.LatencyMS,
		TokensIn:   res.TokensIn,
		TokensOut:  res.TokensOut,
		Features:   ranking.Extract(answer),
	}, nil
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
