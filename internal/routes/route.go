package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/ACSKamloops/shs-engine-sub003/internal/cache"
	"github.com/ACSKamloops/shs-engine-sub003/internal/config"
	"github.com/ACSKamloops/shs-engine-sub003/internal/handlers"
	"github.com/ACSKamloops/shs-engine-sub003/internal/live"
	"github.com/ACSKamloops/shs-engine-sub003/internal/logger"
	mdlwr "github.com/ACSKamloops/shs-engine-sub003/internal/middleware"
	"github.com/ACSKamloops/shs-engine-sub003/internal/services"
)

func NewRouter(db *bun.DB, rdb *redis.Client, cfg *config.Config, logr *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// CORS middleware with config
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	hub := live.NewHub(logr.Logger)
	layerCache := cache.NewLayerCache(rdb, cfg.GeoLayerDir, cfg.LayerCacheTTL, logr.Logger)

	docSvc := services.NewDocumentService(db)
	suggestionSvc := services.NewSuggestionService(db, hub)
	geoSvc := services.NewGeoService(db)
	aoiSvc := services.NewAOIService(db, docSvc, hub, logr.Logger)
	markerSvc := services.NewMarkerService(db)

	docHandler := handlers.NewDocHandler(docSvc, suggestionSvc, logr.Logger)
	searchHandler := handlers.NewSearchHandler(docSvc, logr.Logger)
	geoHandler := handlers.NewGeoHandler(geoSvc, aoiSvc, layerCache, logr.Logger)
	markerHandler := handlers.NewMarkerHandler(markerSvc, logr.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("ok"))
		if err != nil {
			return
		}
	})

	r.Get("/ws", hub.ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mdlwr.APIKey(cfg.APIKey, logr.Logger))

		r.Route("/docs", func(r chi.Router) {
			r.Get("/", docHandler.ListDocs)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", docHandler.GetDoc)
				r.Get("/geo", docHandler.GetDocGeo)

				r.Route("/coords", func(r chi.Router) {
					r.Post("/", docHandler.AddCoord)
					r.Patch("/{coordId}", docHandler.UpdateCoord)
					r.Delete("/{coordId}", docHandler.DeleteCoord)
				})

				r.Route("/suggestions", func(r chi.Router) {
					r.Get("/", docHandler.ListSuggestions)
					r.Post("/{suggestionId}/accept", docHandler.AcceptSuggestion)
					r.Post("/{suggestionId}/reject", docHandler.RejectSuggestion)
				})
			})
		})

		r.Get("/search", searchHandler.Search)
		r.Get("/geojson", geoHandler.GetGeoJSON)
		r.Get("/geo/layers/{name}", geoHandler.GetLayer)

		r.Route("/aoi", func(r chi.Router) {
			r.Get("/", geoHandler.ListAOI)
			r.Post("/import_kmz", geoHandler.ImportKMZ)
			r.Get("/{layerName}", geoHandler.GetAOILayer)
		})

		r.Route("/markers", func(r chi.Router) {
			r.Get("/", markerHandler.ListMarkers)
			r.Post("/", markerHandler.CreateMarker)
			r.Patch("/{id}", markerHandler.UpdateMarker)
			r.Delete("/{id}", markerHandler.DeleteMarker)
		})
	})

	return r
}
