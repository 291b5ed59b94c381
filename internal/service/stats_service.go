package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"evalconsole/internal/apperr"
	"evalconsole/internal/cache"
	"evalconsole/internal/logger"
	"evalconsole/internal/model"
	"evalconsole/internal/repository"
)

// StatsService folds the append-only ask and feedback logs into counts
type StatsService struct {
	askRepo      repository.AskRepository
	feedbackRepo repository.FeedbackRepository
	cache        cache.StatsCache
	loc          *time.Location
	log          *logger.Logger
	now          func() time.Time
}

// NewStatsService creates a stats aggregator. "Today" is the calendar day in
// loc.
func NewStatsService(
	askRepo repository.AskRepository,
	feedbackRepo repository.FeedbackRepository,
	statsCache cache.StatsCache,
	loc *time.Location,
	log *logger.Logger,
) *StatsService {
	return &StatsService{
		askRepo:      askRepo,
		feedbackRepo: feedbackRepo,
		cache:        statsCache,
		loc:          loc,
		log:          log.With("service", "StatsService"),
		now:          time.Now,
	}
}

// Stats returns counts of records created up to now, or up to asOf when
// non-nil. Only the current snapshot is cached.
func (s *StatsService) Stats(ctx context.Context, asOf *time.Time) (*model.Stats, error) {
	if asOf == nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			s.log.Warn("stats cache read failed", "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	at := s.now()
	if asOf != nil {
		at = *asOf
	}

	// read before counting so a write landing mid-compute keeps the cache empty
	cacheable := asOf == nil
	var gen int64
	if cacheable {
		var err error
		if gen, err = s.cache.Generation(ctx); err != nil {
			s.log.Warn("stats cache generation read failed", "error", err)
			cacheable = false
		}
	}

	stats, err := s.compute(ctx, at)
	if err != nil {
		return nil, apperr.Internal(err, "failed to compute stats")
	}

	if cacheable {
		if err := s.cache.Set(ctx, stats, gen); err != nil {
			s.log.Warn("stats cache write failed", "error", err)
		}
	}
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context, at time.Time) (*model.Stats, error) {
	stats := &model.Stats{
		AsOf:     at.In(s.loc),
		Timezone: s.loc.String(),
	}
	dayStart := StartOfDay(at, s.loc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalFeedbacks, err = s.feedbackRepo.Count(gctx, at)
		return err
	})
	g.Go(func() (err error) {
		stats.TodayFeedbacks, err = s.feedbackRepo.CountCreatedBetween(gctx, dayStart, at)
		return err
	})
	g.Go(func() (err error) {
		stats.RuleServed, err = s.askRepo.CountByPolicy(gctx, model.PolicyRule, at)
		return err
	})
	g.Go(func() (err error) {
		stats.LTRServed, err = s.askRepo.CountByPolicy(gctx, model.PolicyLTR, at)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// StartOfDay returns local midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}
