package section

import (
	"context"
	"net/http"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/transport"
)

type ServiceAPI interface {
	ListSections(ctx context.Context) ([]*Section, error)
	GetSection(ctx context.Context, id int64) (*Section, error)
	CreateSection(ctx context.Context, a actor.Actor, dto SectionDTO) (*Section, error)
	UpdateSection(ctx context.Context, a actor.Actor, id int64, dto SectionDTO) (*Section, error)
	DeleteSection(ctx context.Context, a actor.Actor, id int64) error
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

func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.Service.ListSections(r.Context())
	if err != nil {
		h.Logger.Error("ListSections: failed to get sections", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, SectionsResponse{Sections: sections})
}

func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	sec, err := h.Service.GetSection(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sec)
}

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	var dto SectionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	sec, err := h.Service.CreateSection(r.Context(), a, dto)
	if err != nil {
		h.Logger.Error("CreateSection: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, sec)
}

func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}
	var dto SectionDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	sec, err := h.Service.UpdateSection(r.Context(), a, id, dto)
	if err != nil {
		h.Logger.Error("UpdateSection: service error", "error", err, "section_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sec)
}

func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}
	id, ok := h.IDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.DeleteSection(r.Context(), a, id); err != nil {
		h.Logger.Error("DeleteSection: service error", "error", err, "section_id", id)
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
