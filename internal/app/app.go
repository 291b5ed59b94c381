package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"evalconsole/internal/cache"
	"evalconsole/internal/config"
	"evalconsole/internal/logger"
	"evalconsole/internal/provider"
	"evalconsole/internal/ranking"
	"evalconsole/internal/service"
	"evalconsole/internal/transport/rest"
	"evalconsole/internal/transport/ws"
)

// App is the dependency container for the server
type App struct {
	Config *config.AppConfig
	Log    *logger.Logger

	Store       *Store
	StatsCache  cache.StatsCache
	Leaderboard cache.LeaderboardCache
	Engines     *provider.Registry

	Selector        *service.Selector
	AskService      *service.AskService
	FeedbackService *service.FeedbackService
	StatsService    *service.StatsService
	RegistryService *service.RegistryService
	AuthService     *service.AuthService
	Hub             *ws.Hub

	redis *redis.Client
}

// New connects the configured stores and wires every service. cfg must
// already be validated.
func New(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	store, err := OpenStore(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	a.Store = store

	if err := a.openCaches(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}

	engines, err := provider.BuildRegistry(cfg.Providers, log)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("build provider registry: %w", err)
	}
	a.Engines = engines

	var ruleExpr *ranking.ScoreExpr
	if cfg.Serving.RuleScoreExpr != "" {
		ruleExpr, err = ranking.CompileScoreExpr(cfg.Serving.RuleScoreExpr)
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("compile rule_score_expr: %w", err)
		}
	}

	loc, err := cfg.Stats.Location()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	a.Hub = ws.NewHub(log)
	a.Selector = service.NewSelector(store.Models, ranking.NewArtifactLoader(cfg.Serving.ArtifactsDir), cfg.Serving.ActiveModelVersion, ruleExpr, log)
	a.AskService = service.NewAskService(store.Asks, engines, cfg.Providers.CandidateA, cfg.Providers.CandidateB, a.Selector, cfg.DefaultPolicyKind(), a.StatsCache, log)
	a.FeedbackService = service.NewFeedbackService(store.Asks, store.Feedbacks, a.Leaderboard, a.StatsCache, log)
	a.StatsService = service.NewStatsService(store.Asks, store.Feedbacks, a.StatsCache, loc, log)
	a.RegistryService = service.NewRegistryService(store.Models, log)
	a.AuthService = service.NewAuthService(cfg.Auth)

	// hub implements service.Broadcaster
	a.AskService.SetBroadcaster(a.Hub)
	a.FeedbackService.SetBroadcaster(a.Hub)

	log.Info("serving policy configured",
		"default_policy", cfg.DefaultPolicyKind(),
		"active_model_version", cfg.Serving.ActiveModelVersion,
		"rule_score_expr", a.Selector.RuleExpr(),
		"stats_timezone", loc.String(),
		"auth_enabled", a.AuthService.Enabled(),
	)
	return a, nil
}

func (a *App) openCaches(ctx context.Context) error {
	if a.Config.Cache.RedisAddr == "" {
		a.Log.Info("no redis address configured, using in-process caches")
		a.StatsCache = cache.NewMemoryStatsCache(a.Config.Cache.StatsTTL)
		a.Leaderboard = cache.NewMemoryLeaderboard()
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: a.Config.Cache.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		rdb.Close()
		return fmt.Errorf("ping redis at %s: %w", a.Config.Cache.RedisAddr, err)
	}
	a.Log.Info("connected to redis", "addr", a.Config.Cache.RedisAddr)

	a.redis = rdb
	a.StatsCache = cache.NewStatsCache(rdb, a.Config.Cache.StatsTTL)
	a.Leaderboard = cache.NewLeaderboardCache(rdb)
	return nil
}

// Router builds the HTTP handler over the wired services
func (a *App) Router(version string) http.Handler {
	return rest.NewRouter(&rest.Container{
		AskService:      a.AskService,
		FeedbackService: a.FeedbackService,
		StatsService:    a.StatsService,
		RegistryService: a.RegistryService,
		AuthService:     a.AuthService,
		Leaderboard:     a.Leaderboard,
		WSHub:           a.Hub,
		AllowedOrigins:  a.Config.CORS.AllowedOrigins,
		Version:         version,
		Log:             a.Log,
	})
}

// Close releases connections in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Hub != nil {
		a.Hub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
