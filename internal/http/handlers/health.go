package handlers

import "net/http"

// HealthHandler answers load balancer and uptime checks.
type HealthHandler struct {
	version string
}

func NewHealthHandler(version string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{version: version}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "clubvoice-api",
		"status":  "healthy",
		"version": h.version,
	})
}
