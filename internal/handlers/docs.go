package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
	"github.com/ACSKamloops/shs-engine-sub003/internal/services"
)

type DocHandler struct {
	docs        *services.DocumentService
	suggestions *services.SuggestionService
	logr        *zap.Logger
}

func NewDocHandler(docs *services.DocumentService, suggestions *services.SuggestionService, logr *zap.Logger) *DocHandler {
	return &DocHandler{docs: docs, suggestions: suggestions, logr: logr}
}

// ListDocs returns documents matching the optional q/theme/doc_type filters.
func (h *DocHandler) ListDocs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	params := models.DocQueryParams{
		Query:   q.Get("q"),
		Theme:   q.Get("theme"),
		DocType: q.Get("doc_type"),
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		params.Limit = limit
	}

	docs, err := h.docs.ListDocs(ctx, params)
	if err != nil {
		h.logr.Error("failed to list docs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retrieve documents")
		return
	}

	writeJSON(w, http.StatusOK, models.DocsResponse{Docs: docs})
}

// GetDoc returns a single document by id.
func (h *DocHandler) GetDoc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.docID(w, r)
	if !ok {
		return
	}

	doc, err := h.docs.GetDoc(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.logr.Error("failed to get doc", zap.Error(err), zap.Int64("id", id))
		writeError(w, http.StatusInternalServerError, "failed to retrieve document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// GetDocGeo returns the persisted coordinates of a document.
func (h *DocHandler) GetDocGeo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.docID(w, r)
	if !ok {
		return
	}

	coords, err := h.docs.ListCoords(ctx, id)
	if err != nil {
		h.logr.Error("failed to list coords", zap.Error(err), zap.Int64("doc_id", id))
		writeError(w, http.StatusInternalServerError, "failed to retrieve coordinates")
		return
	}

	writeJSON(w, http.StatusOK, models.DocGeoResponse{DocID: id, Coords: coords})
}

// AddCoord attaches a coordinate to a document.
func (h *DocHandler) AddCoord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.docID(w, r)
	if !ok {
		return
	}

	var req models.AddCoordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validLatLng(req.Lat, req.Lng) {
		writeError(w, http.StatusBadRequest, "lat/lng out of range")
		return
	}

	point, err := h.docs.AddCoord(ctx, id, req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.logr.Error("failed to add coord", zap.Error(err), zap.Int64("doc_id", id))
		writeError(w, http.StatusInternalServerError, "failed to add coordinate")
		return
	}

	writeJSON(w, http.StatusCreated, point)
}

// UpdateCoord moves an existing coordinate.
func (h *DocHandler) UpdateCoord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.docID(w, r)
	if !ok {
		return
	}
	coordID, err := strconv.ParseInt(chi.URLParam(r, "coordId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid coordId parameter")
		return
	}

	var req models.UpdateCoordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validLatLng(req.Lat, req.Lng) {
		writeError(w, http.StatusBadRequest, "lat/lng out of range")
		return
	}

	if err := h.docs.UpdateCoord(ctx, id, coordID, req); err != nil {
		h.logr.Error("failed to update coord", zap.Error(err), zap.Int64("coord_id", coordID))
		writeError(w, http.StatusInternalServerError, "failed to update coordinate")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteCoord removes a coordinate from a document.
func (h *DocHandler) DeleteCoord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.docID(w, r)
	if !ok {
		return
	}
	coordID, err := strconv.ParseInt(chi.URLParam(r, "coordId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid coordId parameter")
		return
	}

	if err := h.docs.DeleteCoord(ctx, id, coordID); err != nil {
		h.logr.Error("failed to delete coord", zap.Error(err), zap.Int64("coord_id", coordID))
		writeError(w, http.StatusInternalServerError, "failed to delete coordinate")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListSuggestions returns the pending suggestions of a document.
func (h *DocHandler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.docID(w, r)
	if !ok {
		return
	}

	suggestions, err := h.suggestions.ListPending(ctx, id)
	if err != nil {
		h.logr.Error("failed to list suggestions", zap.Error(err), zap.Int64("doc_id", id))
		writeError(w, http.StatusInternalServerError, "failed to retrieve suggestions")
		return
	}

	writeJSON(w, http.StatusOK, models.SuggestionsResponse{Suggestions: suggestions})
}

// AcceptSuggestion promotes a pending suggestion to a persisted coordinate.
func (h *DocHandler) AcceptSuggestion(w http.ResponseWriter, r *http.Request) {
	h.resolveSuggestion(w, r, h.suggestions.Accept, "accepted")
}

// RejectSuggestion discards a pending suggestion.
func (h *DocHandler) RejectSuggestion(w http.ResponseWriter, r *http.Request) {
	h.resolveSuggestion(w, r, h.suggestions.Reject, "rejected")
}

func (h *DocHandler) resolveSuggestion(
	w http.ResponseWriter,
	r *http.Request,
	resolve func(ctx context.Context, docID, suggestionID int64) error,
	status string,
) {
	ctx := r.Context()

	id, ok := h.docID(w, r)
	if !ok {
		return
	}
	sugID, err := strconv.ParseInt(chi.URLParam(r, "suggestionId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid suggestionId parameter")
		return
	}

	if err := resolve(ctx, id, sugID); err != nil {
		if errors.Is(err, services.ErrSuggestionNotFound) {
			writeError(w, http.StatusNotFound, "suggestion not found")
			return
		}
		h.logr.Error("failed to resolve suggestion", zap.Error(err),
			zap.Int64("suggestion_id", sugID), zap.String("resolution", status))
		writeError(w, http.StatusInternalServerError, "failed to resolve suggestion")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"suggestion_id": sugID,
	})
}

func (h *DocHandler) docID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id parameter")
		return 0, false
	}
	return id, true
}

func validLatLng(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
