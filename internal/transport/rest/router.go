package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evalconsole/internal/cache"
	"evalconsole/internal/logger"
	"evalconsole/internal/service"
	"evalconsole/internal/transport/rest/handler"
	"evalconsole/internal/transport/rest/middleware"
	"evalconsole/internal/transport/ws"
)

// APIPrefix is the versioned path every API route lives under
const APIPrefix = "/api/v1"

// Container holds all dependencies for the router
type Container struct {
	AskService      *service.AskService
	FeedbackService *service.FeedbackService
	StatsService    *service.StatsService
	RegistryService *service.RegistryService
	AuthService     *service.AuthService
	Leaderboard     cache.LeaderboardCache
	WSHub           *ws.Hub
	AllowedOrigins  []string
	Version         string
	Log             *logger.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	askHandler := handler.NewAskHandler(c.AskService)
	feedbackHandler := handler.NewFeedbackHandler(c.FeedbackService)
	adminHandler := handler.NewAdminHandler(c.RegistryService, c.StatsService, c.Leaderboard)
	authHandler := handler.NewAuthHandler(c.AuthService)
	metaHandler := handler.NewMetaHandler(c.Version, APIPrefix)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.AllowedOrigins, c.Log)

	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.Use(middleware.CORS(c.AllowedOrigins))
	r.Use(middleware.Observe(c.Log))

	r.HandleFunc("/", metaHandler.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", metaHandler.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/swagger/doc.json", metaHandler.SwaggerDoc).Methods(http.MethodGet)

	v1 := r.PathPrefix(APIPrefix).Subrouter()

	// Public routes
	v1.HandleFunc("/ask", askHandler.Ask).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/feedback", feedbackHandler.Record).Methods(http.MethodPost, http.MethodOptions)
	v1.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost, http.MethodOptions)

	// Console event stream, token in query param when auth is enabled
	v1.HandleFunc("/ws/events", wsHandler.Events).Methods(http.MethodGet)

	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(authMW.RequireAdmin)

	admin.HandleFunc("/models", adminHandler.Models).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/models/latest", adminHandler.LatestModel).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/models/{version}", adminHandler.Model).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/stats", adminHandler.Stats).Methods(http.MethodGet, http.MethodOptions)
	admin.HandleFunc("/leaderboard", adminHandler.Leaderboard).Methods(http.MethodGet, http.MethodOptions)

	return r
}
