package handlers

import (
	"net/http"

	"github.com/mhadysydney/fridge-controll-app/pkg/store"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(st store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

type healthResponse struct {
	Status string `json:"status"`
}

// Liveness reports that the process is running.
//
// GET /health
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	WriteJSONOK(w, healthResponse{Status: "ok"})
}

// Readiness reports whether the database is reachable.
//
// GET /health/ready
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	WriteJSONOK(w, healthResponse{Status: "ready"})
}
