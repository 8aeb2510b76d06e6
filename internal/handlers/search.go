package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
	"github.com/ACSKamloops/shs-engine-sub003/internal/services"
)

type SearchHandler struct {
	docs *services.DocumentService
	logr *zap.Logger
}

func NewSearchHandler(docs *services.DocumentService, logr *zap.Logger) *SearchHandler {
	return &SearchHandler{docs: docs, logr: logr}
}

// Search matches documents by title and summary and returns snippets.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	params := models.DocQueryParams{
		Query:   query,
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

	results, err := h.docs.Search(ctx, params)
	if err != nil {
		h.logr.Error("search failed", zap.Error(err), zap.String("query", query))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, models.SearchResponse{Results: results})
}
