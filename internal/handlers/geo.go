package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/cache"
	"github.com/ACSKamloops/shs-engine-sub003/internal/geo"
	"github.com/ACSKamloops/shs-engine-sub003/internal/services"
)

// maxImportBytes caps uploaded KMZ/KML/GeoJSON archives.
const maxImportBytes = 32 << 20

type GeoHandler struct {
	geo    *services.GeoService
	aoi    *services.AOIService
	layers *cache.LayerCache
	logr   *zap.Logger
}

func NewGeoHandler(svc *services.GeoService, aoi *services.AOIService, layers *cache.LayerCache, logr *zap.Logger) *GeoHandler {
	return &GeoHandler{geo: svc, aoi: aoi, layers: layers, logr: logr}
}

// GetGeoJSON returns all persisted document coordinates as a FeatureCollection.
func (h *GeoHandler) GetGeoJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = n
	}

	fc, err := h.geo.GeoJSON(ctx, limit, r.URL.Query().Get("label"))
	if err != nil {
		h.logr.Error("failed to build geojson", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to build geojson")
		return
	}

	writeJSON(w, http.StatusOK, fc)
}

// GetLayer serves a named static layer file, cached in redis when available.
func (h *GeoHandler) GetLayer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	data, err := h.layers.Get(ctx, name)
	if err != nil {
		if errors.Is(err, cache.ErrUnknownLayer) {
			writeError(w, http.StatusNotFound, "unknown layer")
			return
		}
		h.logr.Error("failed to load layer", zap.Error(err), zap.String("layer", name))
		writeError(w, http.StatusInternalServerError, "failed to load layer")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListAOI returns every stored area-of-interest feature as one collection.
func (h *GeoHandler) ListAOI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fc, err := h.aoi.All(ctx)
	if err != nil {
		h.logr.Error("failed to list aoi features", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to retrieve aoi features")
		return
	}

	writeJSON(w, http.StatusOK, fc)
}

// GetAOILayer returns the stored features of one named AOI layer.
func (h *GeoHandler) GetAOILayer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	layerName := chi.URLParam(r, "layerName")

	fc, err := h.aoi.Layer(ctx, layerName)
	if err != nil {
		h.logr.Error("failed to load aoi layer", zap.Error(err), zap.String("layer", layerName))
		writeError(w, http.StatusInternalServerError, "failed to retrieve aoi layer")
		return
	}

	writeJSON(w, http.StatusOK, fc)
}

// ImportKMZ ingests an uploaded KMZ/KML/GeoJSON file. Points bound to a
// document become coordinates; everything else becomes AOI features.
func (h *GeoHandler) ImportKMZ(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	imp, err := geo.Normalize(data, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, geo.ErrUnsupportedExtension),
			errors.Is(err, geo.ErrMissingInnerDocument),
			errors.Is(err, geo.ErrMalformedDocument),
			errors.Is(err, geo.ErrNoFeatures):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logr.Error("import normalization failed", zap.Error(err), zap.String("file", header.Filename))
			writeError(w, http.StatusInternalServerError, "failed to process upload")
		}
		return
	}

	layerName := r.FormValue("name")
	if layerName == "" {
		layerName = imp.Name
	}
	theme := r.FormValue("theme")

	var docID int64
	if docStr := r.FormValue("doc_id"); docStr != "" {
		docID, err = strconv.ParseInt(docStr, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid doc_id field")
			return
		}
	}

	result, err := h.aoi.ImportCollection(ctx, imp, layerName, theme, docID)
	if err != nil {
		h.logr.Error("import failed", zap.Error(err), zap.String("layer", layerName))
		writeError(w, http.StatusInternalServerError, "failed to store import")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
