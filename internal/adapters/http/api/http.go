// Package api exposes the record store to officials' dashboards over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/talentboard/internal/adapters/repository"
	"github.com/okian/talentboard/internal/domain/model"
)

const defaultMaxLimit = 50

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	UserDependencies
	AssessmentDependencies
	ReviewDependencies
	InsightDependencies
	SeedDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	userHandler       *UserHandler
	assessmentHandler *AssessmentHandler
	reviewHandler     *ReviewHandler
	insightHandler    *InsightHandler
	seedHandler       *SeedHandler
}

// Option applies a configuration option to the Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit int
	location *time.Location
}

// WithMaxLimit caps the limit query parameter of list endpoints.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithLocation sets the time zone used for "today" when a request gives none.
func WithLocation(loc *time.Location) Option {
	return func(c *serverConfig) {
		if loc != nil {
			c.location = loc
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit, location: time.Local}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps, cfg.location),
		userHandler:       NewUserHandler(deps),
		assessmentHandler: NewAssessmentHandler(deps),
		reviewHandler:     NewReviewHandler(deps),
		insightHandler:    NewInsightHandler(deps, cfg.maxLimit),
		seedHandler:       NewSeedHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /users", MetricsMiddleware(s.userHandler.HandleListUsers, "users"))
	mux.HandleFunc("POST /users", MetricsMiddleware(s.userHandler.HandleAddUser, "users"))
	mux.HandleFunc("GET /users/{id}", MetricsMiddleware(s.userHandler.HandleGetUser, "user"))
	mux.HandleFunc("GET /assessments", MetricsMiddleware(s.assessmentHandler.HandleListAssessments, "assessments"))
	mux.HandleFunc("POST /assessments", MetricsMiddleware(s.assessmentHandler.HandleSubmitAssessment, "assessments"))
	mux.HandleFunc("GET /assessments/{id}", MetricsMiddleware(s.assessmentHandler.HandleGetAssessment, "assessment"))
	mux.HandleFunc("POST /assessments/{id}/status", MetricsMiddleware(s.reviewHandler.HandleUpdateStatus, "assessment_status"))
	mux.HandleFunc("GET /regions", MetricsMiddleware(s.insightHandler.HandleRegions, "regions"))
	mux.HandleFunc("GET /top-performers", MetricsMiddleware(s.insightHandler.HandleTopPerformers, "top_performers"))
	mux.HandleFunc("POST /seed", MetricsMiddleware(s.seedHandler.HandleSeed, "seed"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeStoreError maps store and domain errors to HTTP statuses.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, repository.ErrDuplicateID):
		writeError(w, http.StatusConflict, "duplicate_id", WrapKind(op, ErrConflict, err))
	case errors.Is(err, repository.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", WrapKind(op, ErrConflict, err))
	case errors.Is(err, repository.ErrUnknownUser):
		writeError(w, http.StatusUnprocessableEntity, "unknown_user", Wrap(op, err))
	case errors.Is(err, model.ErrInvalidRecord), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, repository.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// parseLimit reads ?limit=N. A missing value yields def; values outside
// 1..maxLimit are rejected.
func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxLimit {
		return 0, errors.New("limit exceeds maximum of " + strconv.Itoa(maxLimit))
	}
	return n, nil
}
