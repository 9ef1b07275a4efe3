package handlers

import (
	"errors"
	"net/http"

	"github.com/veotube/backend/internal/devices"
)

// DeviceHandler exposes the TV pairing flow.
type DeviceHandler struct {
	Devices DeviceRegistry
}

// List handles GET /api/v1/devices.
func (h DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]any{"devices": h.Devices.List()})
}

// Pair handles POST /api/v1/devices. The code is returned at once; the
// device appears once pairing completes.
func (h DeviceHandler) Pair(w http.ResponseWriter, r *http.Request) {
	pairing, _ := h.Devices.Pair(r.Context())
	respondJSON(r.Context(), w, http.StatusAccepted, pairing)
}

// Status handles GET /api/v1/devices/pairing.
func (h DeviceHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Devices.Status())
}

// Remove handles DELETE /api/v1/devices/{id}.
func (h DeviceHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Devices.Remove(ctx, r.PathValue("id")); err != nil {
		if errors.Is(err, devices.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "device not found")
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to remove device")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
