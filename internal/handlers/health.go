package handlers

import (
	"net/http"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	Catalog CatalogStore
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status": "ok",
	}
	if h.Catalog != nil {
		payload["videos"] = len(h.Catalog.All())
	}

	respondJSON(r.Context(), w, http.StatusOK, payload)
}
