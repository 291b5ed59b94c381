package service

import (
	"context"
	"fmt"

	"evalconsole/internal/apperr"
	"evalconsole/internal/logger"
	"evalconsole/internal/model"
	"evalconsole/internal/ranking"
	"evalconsole/internal/repository"
)

// ResolvedPolicy is a serving policy bound to everything it needs to score.
// For ltr it carries the registry entry and its loaded model.
type ResolvedPolicy struct {
	Kind         model.PolicyKind
	ModelVersion string

	ranker ranking.RankModel
}

// Selection is the selector's decision over one candidate pair
type Selection struct {
	ChosenID     string
	RuleChoiceID string
	LTRChoiceID  string

	// ScoreA and ScoreB come from the scorer that made ChosenID
	ScoreA float64
	ScoreB float64
}

// Selector picks the served candidate under the rule or ltr arm
type Selector struct {
	models        repository.ModelRepository
	loader        *ranking.ArtifactLoader
	pinnedVersion string
	ruleExpr      *ranking.ScoreExpr
	log           *logger.Logger
}

// NewSelector creates a selector. ruleExpr may be nil to use the built-in
// heuristic; pinnedVersion may be empty to serve the latest model.
func NewSelector(models repository.ModelRepository, loader *ranking.ArtifactLoader, pinnedVersion string, ruleExpr *ranking.ScoreExpr, log *logger.Logger) *Selector {
	return &Selector{
		models:        models,
		loader:        loader,
		pinnedVersion: pinnedVersion,
		ruleExpr:      ruleExpr,
		log:           log.With("service", "Selector"),
	}
}

// Resolve binds a policy to a concrete scorer. It runs before candidates are
// generated so an unusable ltr configuration fails the ask early.
func (s *Selector) Resolve(ctx context.Context, policy model.ServingPolicy) (*ResolvedPolicy, error) {
	switch p := policy.(type) {
	case model.RulePolicy:
		return &ResolvedPolicy{Kind: model.PolicyRule}, nil
	case model.LTRPolicy:
		return s.resolveLTR(ctx, p)
	default:
		return nil, apperr.Internal(nil, "unsupported serving policy %T", policy)
	}
}

func (s *Selector) resolveLTR(ctx context.Context, p model.LTRPolicy) (*ResolvedPolicy, error) {
	version := p.ModelVersion
	if version == "" {
		version = s.pinnedVersion
	}

	var rec *model.ModelRecord
	var err error
	if version != "" {
		rec, err = s.models.GetByVersion(ctx, version)
		if err != nil {
			return nil, apperr.Internal(err, "failed to read model registry")
		}
		if rec == nil {
			return nil, apperr.PolicyResolution(nil, "model version %q is not registered", version)
		}
	} else {
		rec, err = s.models.Latest(ctx)
		if err != nil {
			return nil, apperr.Internal(err, "failed to read model registry")
		}
		if rec == nil {
			return nil, apperr.PolicyResolution(nil, "no trained model is registered for the ltr policy")
		}
	}

	if !ranking.SupportedFeatureVersion(rec.FeatureVersion) {
		return nil, apperr.PolicyResolution(nil, "model %s expects feature version %q, which this server cannot compute", rec.ModelVersion, rec.FeatureVersion)
	}
	ranker, err := s.loader.Load(rec)
	if err != nil {
		s.log.Error("failed to load model artifact", "model_version", rec.ModelVersion, "artifact_path", rec.ArtifactPath, "error", err)
		return nil, apperr.PolicyResolution(err, "model %s could not be loaded", rec.ModelVersion)
	}

	return &ResolvedPolicy{
		Kind:         model.PolicyLTR,
		ModelVersion: rec.ModelVersion,
		ranker:       ranker,
	}, nil
}

// Select chooses between a and b. The rule choice is always computed for
// audit. Exact ties go to candidate A under both policies.
func (s *Selector) Select(policy *ResolvedPolicy, a, b *model.Candidate) (*Selection, error) {
	ruleA, err := s.ruleScore(a)
	if err != nil {
		return nil, err
	}
	ruleB, err := s.ruleScore(b)
	if err != nil {
		return nil, err
	}
	sel := &Selection{
		RuleChoiceID: pick(a, b, ruleA, ruleB),
		ScoreA:       ruleA,
		ScoreB:       ruleB,
	}

	switch policy.Kind {
	case model.PolicyRule:
		sel.ChosenID = sel.RuleChoiceID
	case model.PolicyLTR:
		scoreA, scoreB, err := ranking.ScorePair(policy.ranker, a.Features, b.Features)
		if err != nil {
			return nil, apperr.Internal(err, "ltr scoring failed for model %s", policy.ModelVersion)
		}
		sel.LTRChoiceID = pick(a, b, scoreA, scoreB)
		sel.ChosenID = sel.LTRChoiceID
		sel.ScoreA, sel.ScoreB = scoreA, scoreB
	default:
		return nil, apperr.Internal(nil, "unsupported serving policy %q", policy.Kind)
	}
	return sel, nil
}

// RuleChoice is the rule arm on its own. It is a pure function of the two
// candidates' answers and features.
func (s *Selector) RuleChoice(a, b *model.Candidate) (string, error) {
	sel, err := s.Select(&ResolvedPolicy{Kind: model.PolicyRule}, a, b)
	if err != nil {
		return "", err
	}
	return sel.ChosenID, nil
}

// RuleExpr returns the configured scoring expression, or "" for the built-in
func (s *Selector) RuleExpr() string {
	if s.ruleExpr == nil {
		return ""
	}
	return s.ruleExpr.Source()
}

func (s *Selector) ruleScore(c *model.Candidate) (float64, error) {
	if s.ruleExpr == nil {
		return ranking.RuleScore(c.AnswerText, c.Features), nil
	}
	score, err := s.ruleExpr.Score(c.Features)
	if err != nil {
		return 0, apperr.Internal(err, "rule expression failed for candidate %s", c.ID)
	}
	return score, nil
}

func pick(a, b *model.Candidate, scoreA, scoreB float64) string {
	if scoreB > scoreA {
		return b.ID
	}
	return a.ID
}

func (p *ResolvedPolicy) String() string {
	if p.Kind == model.PolicyLTR {
		return fmt.Sprintf("ltr@%s", p.ModelVersion)
	}
	return string(p.Kind)
}
