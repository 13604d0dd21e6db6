package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/talentboard/internal/domain/model"
)

// ReviewDependencies applies an official's decision to an assessment.
type ReviewDependencies interface {
	UpdateAssessmentStatus(ctx context.Context, id string, status model.Status) (model.Assessment, error)
}

// ReviewHandler handles status updates.
type ReviewHandler struct {
	deps ReviewDependencies
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(deps ReviewDependencies) *ReviewHandler {
	return &ReviewHandler{deps: deps}
}

type statusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus handles POST /assessments/{id}/status requests.
// A second decision on the same assessment answers 409.
func (h *ReviewHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_status"
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.deps.UpdateAssessmentStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentView(a))
}
