package handlers

import "net/http"

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	ready func() error
}

// NewHealthHandler creates a health handler. The ready func is optional; when
// set it is invoked on /health/ready to verify downstream dependencies.
func NewHealthHandler(ready func() error) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// Live reports process liveness.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether downstream dependencies are reachable.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
