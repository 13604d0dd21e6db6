package api

import (
	"context"
	"net/http"
)

// SeedDependencies loads the demo records.
type SeedDependencies interface {
	SeedDemoData(ctx context.Context) (bool, error)
}

// SeedHandler handles demo seeding requests.
type SeedHandler struct {
	deps SeedDependencies
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(deps SeedDependencies) *SeedHandler {
	return &SeedHandler{deps: deps}
}

type seedResponse struct {
	Seeded bool `json:"seeded"`
}

// HandleSeed handles POST /seed requests. Seeding a populated store is a
// successful no-op reported as seeded=false.
func (h *SeedHandler) HandleSeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.seed"
	seeded, err := h.deps.SeedDemoData(r.Context())
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{Seeded: seeded})
}
