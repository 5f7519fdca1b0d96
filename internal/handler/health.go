package handler

import "net/http"

type HealthHandler struct {
	service string
	version string
}

func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version}
}

// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Success: true,
		Status:  "ok",
		Service: h.service,
		Version: h.version,
	})
}
