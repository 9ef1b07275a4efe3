package handlers

import (
	"errors"
	"net/http"

	"github.com/veotube/backend/internal/catalog"
	"github.com/veotube/backend/internal/navigation"
)

// NavigationHandler drives the view state machine over HTTP.
type NavigationHandler struct {
	Navigation Navigator
	Catalog    CatalogStore
}

// Frame handles GET /api/v1/navigation.
func (h NavigationHandler) Frame(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Navigation.Frame())
}

// Ready handles POST /api/v1/navigation/ready.
func (h NavigationHandler) Ready(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Navigation.Ready(r.Context()))
}

// Navigate handles POST /api/v1/navigation/{view}.
func (h NavigationHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := navigation.ParseView(r.PathValue("view"))
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, err.Error())
		return
	}

	frame, err := h.Navigation.Navigate(ctx, view)
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(ctx, w, http.StatusOK, frame)
}

// SelectVideo handles POST /api/v1/navigation/video/{id}.
func (h NavigationHandler) SelectVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	if _, err := h.Catalog.Get(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "video not found")
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to load video")
		return
	}
	respondJSON(ctx, w, http.StatusOK, h.Navigation.SelectVideo(ctx, id))
}

// CloseVideo handles DELETE /api/v1/navigation/video.
func (h NavigationHandler) CloseVideo(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, h.Navigation.CloseVideo(r.Context()))
}

type selectAuthorRequest struct {
	Name string `json:"name"`
}

// SelectAuthor handles POST /api/v1/navigation/author.
func (h NavigationHandler) SelectAuthor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req selectAuthorRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	frame, err := h.Navigation.SelectAuthor(ctx, req.Name)
	if err != nil {
		respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(ctx, w, http.StatusOK, frame)
}

// OpenModal handles POST /api/v1/modals/{modal}.
func (h NavigationHandler) OpenModal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	modal, err := navigation.ParseModal(r.PathValue("modal"))
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(ctx, w, http.StatusOK, h.Navigation.OpenModal(ctx, modal))
}

// CloseModal handles DELETE /api/v1/modals/{modal}. Work still pending in
// the modal is abandoned.
func (h NavigationHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	modal, err := navigation.ParseModal(r.PathValue("modal"))
	if err != nil {
		respondError(ctx, w, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(ctx, w, http.StatusOK, h.Navigation.CloseModal(ctx, modal))
}
