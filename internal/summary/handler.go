package summary

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/transport"
	"github.com/frahmantamala/fault-tracker/pkg/logger"
)

type ServiceAPI interface {
	SummarizeSpec(ctx context.Context, a actor.Actor, month, year string) (Summary, error)
	ExportSummary(ctx context.Context, a actor.Actor, w Window) (string, error)
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

// GetSummary serves GET /summary?month=&year=.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.Service.SummarizeSpec(r.Context(), a, q.Get("month"), q.Get("year"))
	if err != nil {
		h.Logger.Error("GetSummary: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	a, ok := h.Actor(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	result, err := h.Service.SummarizeSpec(r.Context(), a, q.Get("month"), q.Get("year"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	file, err := h.Service.ExportSummary(r.Context(), a, result.Window)
	if err != nil {
		h.Logger.Error("ExportSummary: service error", "error", err, "user_id", a.UserID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"file": file})
}
