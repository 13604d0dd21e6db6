package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/talentboard/internal/domain/model"
)

// UserDependencies defines the user operations the API needs.
type UserDependencies interface {
	Users(ctx context.Context) []model.User
	User(ctx context.Context, id string) (model.User, error)
	AddUser(ctx context.Context, u model.User) (model.User, error)
}

// UserHandler handles user requests.
type UserHandler struct {
	deps UserDependencies
}

// NewUserHandler creates a new user handler.
func NewUserHandler(deps UserDependencies) *UserHandler {
	return &UserHandler{deps: deps}
}

// HandleListUsers handles GET /users requests.
func (h *UserHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Users(r.Context()))
}

// HandleGetUser handles GET /users/{id} requests.
func (h *UserHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_user"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	u, err := h.deps.User(r.Context(), id)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleAddUser handles POST /users requests. An omitted id is generated.
func (h *UserHandler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_user"
	var u model.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	created, err := h.deps.AddUser(r.Context(), u)
	if err != nil {
		writeStoreError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
