package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/frahmantamala/fault-tracker/internal/core/clock"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	store   Pinger
	timeout time.Duration
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store, timeout: 2 * time.Second}
}

// Ping reports the process is up without touching the store.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// Health reports whether the fault store answers within the timeout.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	entry := h.check(r.Context())

	status := http.StatusOK
	if entry.Status == HealthUnhealthy {
		status = http.StatusServiceUnavailable
	}

	writeHealthJSON(w, status, HealthResponse{
		Status:     entry.Status,
		CheckedAt:  clock.Now(),
		Components: map[string]CheckEntry{"store": entry},
	})
}

func (h *HealthHandler) check(ctx context.Context) CheckEntry {
	entry := CheckEntry{Status: HealthHealthy}
	if h.store == nil {
		entry.Status = HealthUnhealthy
		entry.Message = "store not configured"
		entry.CheckedAt = clock.Now()
		return entry
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := h.store.PingContext(ctx)
	entry.DurationMs = time.Since(start).Milliseconds()
	entry.CheckedAt = clock.Now()
	if err != nil {
		entry.Status = HealthUnhealthy
		entry.Message = err.Error()
	}
	return entry
}

func writeHealthJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
