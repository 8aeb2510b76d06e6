package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
	"github.com/ACSKamloops/shs-engine-sub003/internal/services"
	"github.com/ACSKamloops/shs-engine-sub003/internal/utils"
)

type MarkerHandler struct {
	service *services.MarkerService
	logr    *zap.Logger
}

func NewMarkerHandler(svc *services.MarkerService, logr *zap.Logger) *MarkerHandler {
	return &MarkerHandler{service: svc, logr: logr}
}

// ListMarkers returns markers, optionally filtered by type and visibility.
func (h *MarkerHandler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	types := utils.ParseQueryList(q, "type")
	for _, t := range types {
		if !slices.Contains(models.MarkerTypes, t) {
			writeError(w, http.StatusBadRequest, "unknown marker type: "+t)
			return
		}
	}
	publicOnly := q.Get("public") == "true"

	markers, err := h.service.List(ctx, types, publicOnly)
	if err != nil {
		h.logr.Error("failed to list markers", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retrieve markers")
		return
	}

	writeJSON(w, http.StatusOK, models.MarkersResponse{Markers: markers, Count: len(markers)})
}

// CreateMarker adds an admin-authored point of interest.
func (h *MarkerHandler) CreateMarker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.MarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Lat == nil || req.Lng == nil || req.Title == nil || *req.Title == "" {
		writeError(w, http.StatusBadRequest, "lat, lng and title are required")
		return
	}
	if !validLatLng(*req.Lat, *req.Lng) {
		writeError(w, http.StatusBadRequest, "lat/lng out of range")
		return
	}
	if req.Type != nil && !slices.Contains(models.MarkerTypes, *req.Type) {
		writeError(w, http.StatusBadRequest, "unknown marker type: "+*req.Type)
		return
	}

	marker, err := h.service.Create(ctx, req)
	if err != nil {
		h.logr.Error("failed to create marker", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create marker")
		return
	}

	writeJSON(w, http.StatusCreated, marker)
}

// UpdateMarker patches an existing marker; absent fields are left alone.
func (h *MarkerHandler) UpdateMarker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	var req models.MarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Lat != nil && req.Lng != nil && !validLatLng(*req.Lat, *req.Lng) {
		writeError(w, http.StatusBadRequest, "lat/lng out of range")
		return
	}
	if req.Type != nil && !slices.Contains(models.MarkerTypes, *req.Type) {
		writeError(w, http.StatusBadRequest, "unknown marker type: "+*req.Type)
		return
	}

	marker, err := h.service.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, services.ErrMarkerNotFound) {
			writeError(w, http.StatusNotFound, "marker not found")
			return
		}
		h.logr.Error("failed to update marker", zap.Error(err), zap.String("id", id))
		writeError(w, http.StatusInternalServerError, "failed to update marker")
		return
	}

	writeJSON(w, http.StatusOK, marker)
}

// DeleteMarker removes a marker by id.
func (h *MarkerHandler) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrMarkerNotFound) {
			writeError(w, http.StatusNotFound, "marker not found")
			return
		}
		h.logr.Error("failed to delete marker", zap.Error(err), zap.String("id", id))
		writeError(w, http.StatusInternalServerError, "failed to delete marker")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
