package handlers

import (
	"net/http"

	"github.com/bimakw/amm-gateway/internal/connectors/registry"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Instances []registry.Status `json:"instances"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	version   string
	instances func() []registry.Status
}

// NewHealthHandler creates a new health handler. instances may be nil.
func NewHealthHandler(version string, instances func() []registry.Status) *HealthHandler {
	return &HealthHandler{version: version, instances: instances}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		Instances: []registry.Status{},
	}
	if h.instances != nil {
		resp.Instances = h.instances()
	}
	writeJSON(w, http.StatusOK, resp)
}
