package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"evalconsole/internal/apperr"
	"evalconsole/internal/cache"
	"evalconsole/internal/logger"
	"evalconsole/internal/metrics"
	"evalconsole/internal/model"
	"evalconsole/internal/repository"
)

// FeedbackService records human judgments over ask records
type FeedbackService struct {
	askRepo      repository.AskRepository
	feedbackRepo repository.FeedbackRepository
	leaderboard  cache.LeaderboardCache
	statsCache   cache.StatsCache
	broadcaster  Broadcaster
	log          *logger.Logger
	now          func() time.Time
}

// NewFeedbackService creates a new feedback recorder
func NewFeedbackService(
	askRepo repository.AskRepository,
	feedbackRepo repository.FeedbackRepository,
	leaderboard cache.LeaderboardCache,
	statsCache cache.StatsCache,
	log *logger.Logger,
) *FeedbackService {
	return &FeedbackService{
		askRepo:      askRepo,
		feedbackRepo: feedbackRepo,
		leaderboard:  leaderboard,
		statsCache:   statsCache,
		log:          log.With("service", "FeedbackService"),
		now:          time.Now,
	}
}

// SetBroadcaster sets the broadcaster for console events
func (s *FeedbackService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Record validates and persists one judgment. With an idempotency key, a
// retry for the same question returns the original feedback id.
func (s *FeedbackService) Record(ctx context.Context, in model.FeedbackInput) (*model.FeedbackResult, error) {
	fb, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	if fb.IdempotencyKey != "" {
		prior, err := s.feedbackRepo.GetByIdempotencyKey(ctx, fb.IdempotencyKey)
		if err != nil {
			return nil, apperr.Internal(err, "failed to look up idempotency key")
		}
		if prior != nil {
			return s.replay(prior, fb)
		}
	}

	rec, err := s.askRepo.GetByID(ctx, fb.QuestionID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load ask record")
	}
	if rec == nil {
		return nil, apperr.NotFound("question %s does not exist", fb.QuestionID)
	}
	if fb.CandidateAID != rec.CandidateA.ID || fb.CandidateBID != rec.CandidateB.ID {
		return nil, apperr.Integrity("candidate ids do not match question %s; reload the question and try again", fb.QuestionID)
	}

	fb.FeedbackID = uuid.NewString()
	fb.ServedPolicy = rec.ServedPolicy
	fb.CreatedAt = s.now().UTC()

	if err := s.feedbackRepo.Create(ctx, fb); err != nil {
		if errors.Is(err, repository.ErrDuplicate) && fb.IdempotencyKey != "" {
			// lost a race with a concurrent submission carrying the same key
			prior, lookupErr := s.feedbackRepo.GetByIdempotencyKey(ctx, fb.IdempotencyKey)
			if lookupErr == nil && prior != nil {
				return s.replay(prior, fb)
			}
		}
		return nil, apperr.Internal(err, "failed to persist feedback")
	}

	s.afterRecord(ctx, rec, fb)
	metrics.FeedbackRecorded.WithLabelValues(string(fb.UserChoice), "false").Inc()
	return &model.FeedbackResult{FeedbackID: fb.FeedbackID}, nil
}

func (s *FeedbackService) replay(prior, fb *model.Feedback) (*model.FeedbackResult, error) {
	if prior.QuestionID != fb.QuestionID {
		return nil, apperr.Conflict("idempotency key was already used for a different question")
	}
	metrics.FeedbackRecorded.WithLabelValues(string(prior.UserChoice), "true").Inc()
	s.log.Debug("feedback replayed", "feedback_id", prior.FeedbackID, "question_id", prior.QuestionID)
	return &model.FeedbackResult{FeedbackID: prior.FeedbackID, Replayed: true}, nil
}

// afterRecord updates derived views. Failures here never fail the request;
// the feedback is already durable.
func (s *FeedbackService) afterRecord(ctx context.Context, rec *model.AskRecord, fb *model.Feedback) {
	var winner string
	switch fb.UserChoice {
	case model.ChoiceA:
		winner = rec.CandidateA.Provider
	case model.ChoiceB:
		winner = rec.CandidateB.Provider
	}
	if winner != "" {
		if err := s.leaderboard.AddWin(ctx, winner); err != nil {
			s.log.Warn("failed to update provider leaderboard", "provider", winner, "error", err)
		}
	}

	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate stats cache", "error", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast(EventFeedbackRecorded, map[string]interface{}{
			"feedback_id": fb.FeedbackID,
			"question_id": fb.QuestionID,
			"user_choice": fb.UserChoice,
		})
	}

	s.log.Info("feedback recorded",
		"feedback_id", fb.FeedbackID,
		"question_id", fb.QuestionID,
		"choice", fb.UserChoice,
		"tags", len(fb.ReasonTags),
	)
}

func (s *FeedbackService) normalize(in model.FeedbackInput) (*model.Feedback, error) {
	fb := &model.Feedback{
		QuestionID:     strings.TrimSpace(in.QuestionID),
		CandidateAID:   strings.TrimSpace(in.CandidateAID),
		CandidateBID:   strings.TrimSpace(in.CandidateBID),
		UserChoice:     model.Choice(strings.ToLower(strings.TrimSpace(string(in.UserChoice)))),
		IdempotencyKey: strings.TrimSpace(in.IdempotencyKey),
	}

	if fb.QuestionID == "" {
		return nil, apperr.Validation("question_id is required")
	}
	if fb.CandidateAID == "" || fb.CandidateBID == "" {
		return nil, apperr.Validation("candidate_a_id and candidate_b_id are required")
	}
	if !fb.UserChoice.Valid() {
		return nil, apperr.Validation("user_choice must be one of a, b, tie, bad; got %q", in.UserChoice)
	}
	if utf8.RuneCountInString(fb.IdempotencyKey) > maxIdempotencyChars {
		return nil, apperr.Validation("idempotency key must be at most %d characters", maxIdempotencyChars)
	}

	tags, err := SanitizeReasonTags(in.ReasonTags)
	if err != nil {
		return nil, err
	}
	fb.ReasonTags = tags

	fb.Note = sanitizeNote(in.Note)
	if utf8.RuneCountInString(fb.Note) > maxNoteChars {
		return nil, apperr.Validation("note must be at most %d characters", maxNoteChars)
	}
	return fb, nil
}

// sanitizeNote keeps line structure but drops other control characters
func sanitizeNote(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
