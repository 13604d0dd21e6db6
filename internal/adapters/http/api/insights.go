package api

import (
	"context"
	"net/http"

	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/internal/domain/stats"
)

// InsightDependencies provides the dashboard's ranked views.
type InsightDependencies interface {
	Regions(ctx context.Context, limit int) []stats.Region
	TopPerformers(ctx context.Context, limit int) []model.User
}

// InsightHandler handles regional and top performer requests.
type InsightHandler struct {
	deps     InsightDependencies
	maxLimit int
}

// NewInsightHandler creates a new insight handler.
func NewInsightHandler(deps InsightDependencies, maxLimit int) *InsightHandler {
	return &InsightHandler{deps: deps, maxLimit: maxLimit}
}

// HandleRegions handles GET /regions?limit=N requests.
func (h *InsightHandler) HandleRegions(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_regions"
	n, err := parseLimit(r, stats.DefaultRegionLimit, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Regions(r.Context(), n))
}

// HandleTopPerformers handles GET /top-performers?limit=N requests.
func (h *InsightHandler) HandleTopPerformers(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_top_performers"
	n, err := parseLimit(r, stats.DefaultPerformerLimit, h.maxLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.TopPerformers(r.Context(), n))
}
