package machine

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/transport"
)

type ServiceAPI interface {
	ListMachines(ctx context.Context, sectionID int64) ([]*Machine, error)
	GetMachine(ctx context.Context, id int64) (*Machine, error)
	CreateMachine(ctx context.Context, a actor.Actor, dto MachineDTO) (*Machine, error)
	UpdateMachine(ctx context.Context, a actor.Actor, id int64, dto MachineDTO) (*Machine, error)
	DeleteMachine(ctx context.Context, a actor.Actor, id int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// ListMachines serves GET /machines, optionally narrowed by ?section_id=.
func (h *Handler) ListMachines(w http.ResponseWriter, r *http.Request) {
	var sectionID int64
	if raw := r.URL.Query().Get("section_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.WriteError(w, http.StatusBadRequest, "invalid section_id")
			return
		}
		sectionID = id
	}

	machines, err := h.Service.ListMachines(r.Context(), sectionID)
	if err != nil {
		h.Logger.Error("ListMachines: service error", "error", err, "section_id", sectionID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MachinesResponse{Machines: machines})
}

func (h *Handler) GetMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Service.GetMachine(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	var dto MachineDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	m, err := h.Service.CreateMachine(r.Context(), a, dto)
	if err != nil {
		h.Logger.Error("CreateMachine: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto MachineDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	m, err := h.Service.UpdateMachine(r.Context(), a, id, dto)
	if err != nil {
		h.Logger.Error("UpdateMachine: service error", "error", err, "machine_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteMachine(r.Context(), a, id); err != nil {
		h.Logger.Error("DeleteMachine: service error", "error", err, "machine_id", id)
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
