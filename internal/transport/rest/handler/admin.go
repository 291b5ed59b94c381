package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"evalconsole/internal/apperr"
	"evalconsole/internal/cache"
	"evalconsole/internal/service"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
)

// AdminHandler serves the research console's read-only views
type AdminHandler struct {
	registrySvc *service.RegistryService
	statsSvc    *service.StatsService
	leaderboard cache.LeaderboardCache
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(registrySvc *service.RegistryService, statsSvc *service.StatsService, leaderboard cache.LeaderboardCache) *AdminHandler {
	return &AdminHandler{
		registrySvc: registrySvc,
		statsSvc:    statsSvc,
		leaderboard: leaderboard,
	}
}

// Models handles GET /api/v1/admin/models
//
//	@Summary	List registered ltr models, newest first
//	@Tags		admin
//	@Produce	json
//	@Success	200	{array}	model.ModelRecord
//	@Router		/admin/models [get]
func (h *AdminHandler) Models(w http.ResponseWriter, r *http.Request) {
	recs, err := h.registrySvc.List(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// LatestModel handles GET /api/v1/admin/models/latest
func (h *AdminHandler) LatestModel(w http.ResponseWriter, r *http.Request) {
	rec, err := h.registrySvc.ResolveLatest(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Model handles GET /api/v1/admin/models/{version}
func (h *AdminHandler) Model(w http.ResponseWriter, r *http.Request) {
	rec, err := h.registrySvc.Resolve(r.Context(), mux.Vars(r)["version"])
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Stats handles GET /api/v1/admin/stats
//
//	@Summary	Serving and feedback volume
//	@Tags		admin
//	@Produce	json
//	@Param		as_of	query		string	false	"RFC3339 instant"
//	@Success	200		{object}	model.Stats
//	@Router		/admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	var asOf *time.Time
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeAppError(w, apperr.Validation("as_of must be an RFC3339 timestamp"))
			return
		}
		asOf = &t
	}

	stats, err := h.statsSvc.Stats(r.Context(), asOf)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Leaderboard handles GET /api/v1/admin/leaderboard. With ?provider=name it
// returns that provider's rank only.
func (h *AdminHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if provider := r.URL.Query().Get("provider"); provider != "" {
		rank, err := h.leaderboard.GetRank(r.Context(), provider)
		if err != nil {
			writeAppError(w, apperr.Internal(err, "failed to read leaderboard"))
			return
		}
		if rank < 1 {
			writeAppError(w, apperr.NotFound("provider %q has no recorded wins", provider))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"provider": provider, "rank": rank})
		return
	}

	limit := defaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLeaderboardLimit {
			writeAppError(w, apperr.Validation("limit must be between 1 and %d", maxLeaderboardLimit))
			return
		}
		limit = n
	}

	entries, err := h.leaderboard.GetTop(r.Context(), limit)
	if err != nil {
		writeAppError(w, apperr.Internal(err, "failed to read leaderboard"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"providers": entries})
}
