package api

import (
	"net/http"

	"github.com/filesmith/filesmith/internal/asset"
	"github.com/filesmith/filesmith/internal/log"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store  asset.Store
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
// store is the asset store used for readiness checks.
func NewHealthHandler(store asset.Store, logger log.Logger) *HealthHandler {
	return &HealthHandler{store: store, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint.
// Returns 200 OK if the asset store is reachable.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "asset store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
