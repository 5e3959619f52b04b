package fault

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/transport"
	"github.com/frahmantamala/fault-tracker/pkg/logger"
)

type ServiceAPI interface {
	CreateFault(ctx context.Context, a actor.Actor, dto CreateFaultDTO) (*Fault, error)
	ListVisibleFaults(ctx context.Context, a actor.Actor, filters ListFilters) ([]*Fault, error)
	GetFault(ctx context.Context, a actor.Actor, id int64) (*Fault, error)
	TransitionFault(ctx context.Context, a actor.Actor, id int64, patch Patch) (*Fault, error)
	DeleteFault(ctx context.Context, a actor.Actor, id int64) error
	ExportFault(ctx context.Context, a actor.Actor, id int64) (string, error)
	ExportFaults(ctx context.Context, a actor.Actor, filters ListFilters) (string, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

type ExportResponse struct {
	File string `json:"file"`
}

func (h *Handler) CreateFault(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}

	var dto CreateFaultDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	f, err := h.Service.CreateFault(r.Context(), a, dto)
	if err != nil {
		h.Logger.Error("CreateFault: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, f)
}

func (h *Handler) ListFaults(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}

	filters, err := ParseListFilters(r.URL.Query())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	faults, err := h.Service.ListVisibleFaults(r.Context(), a, filters)
	if err != nil {
		h.Logger.Error("ListFaults: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ListResponse{Faults: faults, Total: len(faults)})
}

func (h *Handler) GetFault(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	f, err := h.Service.GetFault(r.Context(), a, id)
	if err != nil {
		h.Logger.Error("GetFault: service error", "error", err, "fault_id", id, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) TransitionFault(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	var patch Patch
	if !h.DecodeJSON(w, r, &patch) {
		return
	}

	f, err := h.Service.TransitionFault(r.Context(), a, id, patch)
	if err != nil {
		h.Logger.Error("TransitionFault: service error", "error", err, "fault_id", id, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, f)
}

func (h *Handler) DeleteFault(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteFault(r.Context(), a, id); err != nil {
		h.Logger.Error("DeleteFault: service error", "error", err, "fault_id", id, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ExportFault(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	file, err := h.Service.ExportFault(r.Context(), a, id)
	if err != nil {
		h.Logger.Error("ExportFault: service error", "error", err, "fault_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ExportResponse{File: file})
}

func (h *Handler) ExportFaults(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}

	filters, err := ParseListFilters(r.URL.Query())
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	file, err := h.Service.ExportFaults(r.Context(), a, filters)
	if err != nil {
		h.Logger.Error("ExportFaults: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, ExportResponse{File: file})
}
