package services

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/uptrace/bun"

	"github.com/ACSKamloops/shs-engine-sub003/internal/geo"
	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

// GeoService assembles document-derived geo points into GeoJSON.
type GeoService struct {
	db *bun.DB
}

func NewGeoService(db *bun.DB) *GeoService {
	return &GeoService{db: db}
}

// GeoJSON returns the newest geo points as a feature collection with the
// typed property shape (doc_id, theme, title).
func (s *GeoService) GeoJSON(ctx context.Context, limit int, label string) (*geojson.FeatureCollection, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var rows []struct {
		ID       int64   `bun:"id"`
		DocID    int64   `bun:"doc_id"`
		Lat      float64 `bun:"lat"`
		Lng      float64 `bun:"lng"`
		Label    string  `bun:"label"`
		Theme    *string `bun:"theme"`
		DocTheme *string `bun:"doc_theme"`
	}
	q := s.db.NewSelect().
		ColumnExpr("gp.id, gp.doc_id, gp.lat, gp.lng, gp.label, gp.theme").
		ColumnExpr("d.theme AS doc_theme").
		TableExpr("app.geo_points AS gp").
		Join("LEFT JOIN app.docs AS d ON d.id = gp.doc_id")
	if label != "" {
		q = q.Where("gp.label ILIKE ?", "%"+label+"%")
	}
	err := q.OrderExpr("gp.created_at DESC").
		Limit(limit).
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()
	for _, r := range rows {
		point := models.GeoPoint{
			ID:    r.ID,
			DocID: r.DocID,
			Lat:   r.Lat,
			Lng:   r.Lng,
			Label: r.Label,
			Theme: r.Theme,
		}
		fc.Append(PointFeature(point, r.DocTheme))
	}
	return fc, nil
}

// PointFeature renders one geo point row as a GeoJSON feature. The point's
// own theme wins over the document's.
func PointFeature(p models.GeoPoint, docTheme *string) *geojson.Feature {
	theme := ""
	if p.Theme != nil {
		theme = *p.Theme
	} else if docTheme != nil {
		theme = *docTheme
	}
	f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
	f.Properties = geo.Properties{
		DocID: p.DocID,
		Title: p.Label,
		Theme: theme,
	}.Map()
	return f
}
