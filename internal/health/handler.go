package health

import (
	"encoding/json"
	"net/http"
)

// Handler serves the registry over HTTP. Routes are mounted by the API
// router, not here.
type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// HealthHandler serves the full aggregate, warning checks included.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.registry.Health(r.Context()))
}

// LivenessHandler answers orchestrator liveness probes.
func (h *Handler) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.registry.Liveness(r.Context()))
}

// ReadinessHandler answers readiness probes; 503 takes the node out of
// the load balancer rotation.
func (h *Handler) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.registry.Readiness(r.Context()))
}

func (h *Handler) respond(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	if resp.Status == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(resp)
}
