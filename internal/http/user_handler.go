package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/salon-scheduler/internal/application"
)

type userService interface {
	ListUsers(ctx context.Context) ([]application.User, error)
	CreateUser(ctx context.Context, params application.CreateUserParams) (application.User, error)
}

// UserHandler exposes account management to administrators.
type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := orDefault(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return scopedLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) requireAdmin(w http.ResponseWriter, r *http.Request, operation string) bool {
	principal, ok := PrincipalFromContext(r.Context())
	if ok && principal.IsAdmin {
		return true
	}
	h.log(r.Context(), operation, "error_kind", "forbidden").WarnContext(r.Context(), "non-administrator attempted user management")
	h.responder.writeError(r.Context(), w, http.StatusForbidden, nil)
	return false
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !h.requireAdmin(w, r, "List") {
		return
	}

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, out)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if !h.requireAdmin(w, r, "Create") {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	user, err := h.service.CreateUser(r.Context(), application.CreateUserParams{
		Username: req.Username,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toUserDTO(user))
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}
