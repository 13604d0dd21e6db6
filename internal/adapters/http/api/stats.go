package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/talentboard/internal/domain/stats"
)

// StatsProvider computes the dashboard counters for the day containing now
// in loc.
type StatsProvider interface {
	Stats(ctx context.Context, loc *time.Location) stats.Stats
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
	location      *time.Location
}

// NewStatsHandler creates a new stats handler. loc is used when the request
// names no time zone.
func NewStatsHandler(statsProvider StatsProvider, loc *time.Location) *StatsHandler {
	if loc == nil {
		loc = time.Local
	}
	return &StatsHandler{statsProvider: statsProvider, location: loc}
}

// HandleStats handles GET /stats?tz=Area/City requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_stats"
	loc := h.location
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		loc = l
	}
	writeJSON(w, http.StatusOK, h.statsProvider.Stats(r.Context(), loc))
}
