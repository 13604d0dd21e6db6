package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/talentboard/internal/adapters/repository"
)

func TestKindError(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := WrapKind("api.submit_assessment", ErrBadRequest, cause)

	if !errors.Is(err, ErrBadRequest) || !errors.Is(err, cause) {
		t.Fatalf("expected both kind and cause in chain, got %v", err)
	}
	if got, want := err.Error(), "api.submit_assessment: bad request: unexpected EOF"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := NewKind("api.get_user", ErrNotFound).Error(), "api.get_user: not found"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		status         int
		kind, severity string
	}{
		{http.StatusBadRequest, "client_error", "medium"},
		{http.StatusNotFound, "not_found", "low"},
		{http.StatusConflict, "conflict", "low"},
		{http.StatusUnprocessableEntity, "unknown_reference", "medium"},
		{http.StatusInternalServerError, "server_error", "high"},
		{http.StatusServiceUnavailable, "unavailable", "high"},
	}
	for _, c := range cases {
		kind, severity := classify(c.status)
		if kind != c.kind || severity != c.severity {
			t.Errorf("classify(%d) = %s/%s, want %s/%s", c.status, kind, severity, c.kind, c.severity)
		}
	}
}

func TestMetricsMiddlewareKeepsStatus(t *testing.T) {
	h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusConflict, "invalid_transition", errors.New("verified -> flagged"))
	}, "test")

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/assessments/A1/status", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":"invalid_transition"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestWriteStoreErrorConflicts(t *testing.T) {
	for _, cause := range []error{
		fmt.Errorf("%w: pending -> pending", repository.ErrInvalidTransition),
		fmt.Errorf("%w: user %q", repository.ErrDuplicateID, "U1"),
	} {
		rec := httptest.NewRecorder()
		writeStoreError(rec, "api.update_status", cause)

		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409 for %v", rec.Code, cause)
		}
		if !strings.Contains(rec.Body.String(), "api.update_status: conflict: ") {
			t.Errorf("expected conflict kind in message, got %q", rec.Body.String())
		}
	}
}
