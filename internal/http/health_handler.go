package http

import (
	"context"
	"net/http"
	"time"
)

// PingFunc checks a backing dependency.
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	ping    PingFunc
	version string
	timeout time.Duration
}

func NewHealthHandler(ping PingFunc, version string, timeout time.Duration) *HealthHandler {
	return &HealthHandler{ping: ping, version: version, timeout: timeout}
}

// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": "down"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "up"})
}

// GET /version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": h.version})
}
