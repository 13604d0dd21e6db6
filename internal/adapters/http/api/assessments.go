package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/talentboard/internal/domain/filter"
	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/internal/domain/scoring"
)

// AssessmentDependencies defines the assessment operations the API needs.
type AssessmentDependencies interface {
	// FilteredAssessments applies q and then order (nil keeps store order).
	FilteredAssessments(ctx context.Context, q filter.Query, order filter.Sort) []model.Assessment
	Assessment(ctx context.Context, id string) (model.Assessment, error)
	// SubmitAssessment grades and stores s, returning the grading result with it.
	SubmitAssessment(ctx context.Context, s model.Submission) (model.Assessment, scoring.Result, error)
}

// AssessmentHandler handles assessment requests.
type AssessmentHandler struct {
	deps AssessmentDependencies
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps AssessmentDependencies) *AssessmentHandler {
	return &AssessmentHandler{deps: deps}
}

// assessmentView adds the officials' result line to the stored record, and
// the grading feedback right after a submission.
type assessmentView struct {
	model.Assessment
	Summary  string
	Feedback string
	Tier     scoring.Tier
}

// MarshalJSON merges the summary into the assessment's own encoding.
func (v assessmentView) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(v.Assessment)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	fields["summary"] = v.Summary
	if v.Feedback != "" {
		fields["feedback"] = v.Feedback
	}
	if v.Tier != "" {
		fields["tier"] = v.Tier
	}
	return json.Marshal(fields)
}

func newAssessmentView(a model.Assessment) assessmentView {
	return assessmentView{Assessment: a, Summary: a.Summary()}
}

// HandleListAssessments handles GET /assessments?search=&status=&type=&sort= requests.
func (h *AssessmentHandler) HandleListAssessments(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_assessments"
	q, order, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	as := h.deps.FilteredAssessments(r.Context(), q, order)
	out := make([]assessmentView, len(as))
	for i, a := range as {
		out[i] = newAssessmentView(a)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetAssessment handles GET /assessments/{id} requests.
func (h *AssessmentHandler) HandleGetAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessment"
	a, err := h.deps.Assessment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newAssessmentView(a))
}

// HandleSubmitAssessment handles POST /assessments requests.
func (h *AssessmentHandler) HandleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_assessment"
	var s model.Submission
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(s.UserID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing userId")))
		return
	}
	a, res, err := h.deps.SubmitAssessment(r.Context(), s)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	view := newAssessmentView(a)
	view.Feedback, view.Tier = res.Feedback, res.Tier
	writeJSON(w, http.StatusCreated, view)
}

// parseQuery validates the filter parameters. Empty values mean "all".
func parseQuery(r *http.Request) (filter.Query, filter.Sort, error) {
	v := r.URL.Query()
	q := filter.Query{
		SearchTerm: v.Get("search"),
		Status:     strings.ToLower(strings.TrimSpace(v.Get("status"))),
		Type:       strings.ToLower(strings.TrimSpace(v.Get("type"))),
	}
	if q.Status != "" && q.Status != filter.All {
		if _, err := model.ParseStatus(q.Status); err != nil {
			return filter.Query{}, nil, err
		}
	}
	if q.Type != "" && q.Type != filter.All {
		if _, err := model.ParseAssessmentType(q.Type); err != nil {
			return filter.Query{}, nil, err
		}
	}
	var order filter.Sort
	if name := v.Get("sort"); name != "" {
		if order = filter.SortByName(name); order == nil {
			return filter.Query{}, nil, errors.New("sort must be newest or score")
		}
	}
	return q, order, nil
}
