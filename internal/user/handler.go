package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/transport"
)

type ServiceAPI interface {
	ListUsers(ctx context.Context, a actor.Actor, role actor.Role) ([]*User, error)
	GetUser(ctx context.Context, a actor.Actor, id int64) (*User, error)
	Me(ctx context.Context, a actor.Actor) (*User, error)
	CreateUser(ctx context.Context, a actor.Actor, dto CreateUserDTO) (*User, error)
	UpdateUser(ctx context.Context, a actor.Actor, id int64, dto UpdateUserDTO) (*User, error)
	ChangePassword(ctx context.Context, a actor.Actor, id int64, dto ChangePasswordDTO) error
	DeleteUser(ctx context.Context, a actor.Actor, id int64) error
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmployeeCodeExists(ctx context.Context, code string) (bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

// GetCurrentUser handles GET /users/me
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}

	u, err := h.Service.Me(r.Context(), a)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service Me failed", "user_id", a.UserID, "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /users?role=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var role actor.Role
	if raw := r.URL.Query().Get("role"); raw != "" {
		parsed, err := actor.ParseRole(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid role")
			return
		}
		role = parsed
	}

	users, err := h.Service.ListUsers(r.Context(), a, role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, UsersResponse{Users: users})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	u, err := h.Service.GetUser(r.Context(), a, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	var dto CreateUserDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	u, err := h.Service.CreateUser(r.Context(), a, dto)
	if err != nil {
		h.Logger.Error("CreateUser: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto UpdateUserDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	u, err := h.Service.UpdateUser(r.Context(), a, id, dto)
	if err != nil {
		h.Logger.Error("UpdateUser: service error", "error", err, "target_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, u)
}

// ChangePassword handles PUT /users/{id}/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto ChangePasswordDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	if err := h.Service.ChangePassword(r.Context(), a, id, dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteUser(r.Context(), a, id); err != nil {
		h.Logger.Error("DeleteUser: service error", "error", err, "target_id", id)
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UsernameExists handles GET /users/exists/username?value=
func (h *Handler) UsernameExists(w http.ResponseWriter, r *http.Request) {
	h.exists(w, r, h.Service.UsernameExists)
}

// EmployeeCodeExists handles GET /users/exists/employee-code?value=
func (h *Handler) EmployeeCodeExists(w http.ResponseWriter, r *http.Request) {
	h.exists(w, r, h.Service.EmployeeCodeExists)
}

func (h *Handler) exists(w http.ResponseWriter, r *http.Request, check func(context.Context, string) (bool, error)) {
	value := r.URL.Query().Get("value")
	if value == "" {
		h.WriteError(w, http.StatusBadRequest, "value is required")
		return
	}
	found, err := check(r.Context(), value)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ExistsResponse{Exists: found})
}
