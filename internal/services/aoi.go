package services

import (
	"context"
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/geo"
	"github.com/ACSKamloops/shs-engine-sub003/internal/live"
	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

// AOIService stores area-of-interest layers built from normalized imports.
type AOIService struct {
	db     *bun.DB
	docs   *DocumentService
	events *live.Hub
	logr   *zap.Logger
}

func NewAOIService(db *bun.DB, docs *DocumentService, events *live.Hub, logr *zap.Logger) *AOIService {
	return &AOIService{db: db, docs: docs, events: events, logr: logr}
}

// ImportCollection stores a normalized import. Point features are attached
// to the document as coordinates when docID is set; everything else lands
// in the named AOI layer.
func (s *AOIService) ImportCollection(ctx context.Context, imp *geo.Import, layerName, theme string, docID int64) (*models.ImportResult, error) {
	if layerName == "" {
		layerName = imp.Name
	}

	result := &models.ImportResult{
		Status:      "ok",
		Layer:       layerName,
		Features:    imp.FeatureCount,
		Quarantined: imp.Quarantined,
	}

	for _, f := range imp.Collection.Features {
		props, _ := geo.FeatureProperties(f)
		name := props.Name
		if name == "" {
			name = layerName
		}

		if pt, isPoint := f.Geometry.(orb.Point); isPoint && docID > 0 {
			_, err := s.docs.AddCoord(ctx, docID, models.AddCoordRequest{
				Lat:   pt.Y(),
				Lng:   pt.X(),
				Label: name,
			})
			if err != nil {
				return nil, err
			}
			result.PointsAdded++
			continue
		}

		geomJSON, err := json.Marshal(geojson.NewGeometry(f.Geometry))
		if err != nil {
			return nil, err
		}
		row := &models.AOIFeature{
			LayerName: layerName,
			Name:      name,
			Geometry:  string(geomJSON),
		}
		if theme != "" {
			row.Theme = &theme
		} else if props.Theme != "" {
			t := props.Theme
			row.Theme = &t
		}
		if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
			return nil, err
		}
		result.AOIsAdded++
	}

	s.logr.Info("import stored",
		zap.String("layer", layerName),
		zap.Int("points", result.PointsAdded),
		zap.Int("aois", result.AOIsAdded),
		zap.Int("quarantined", result.Quarantined))
	s.events.Broadcast(live.Event{Type: live.LayerImported, Payload: result})
	return result, nil
}

// Layer assembles one named AOI layer as a feature collection.
func (s *AOIService) Layer(ctx context.Context, layerName string) (*geojson.FeatureCollection, error) {
	var rows []models.AOIFeature
	err := s.db.NewSelect().
		Model(&rows).
		Where("layer_name = ?", layerName).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return s.assemble(rows), nil
}

// All assembles every stored AOI feature into one collection.
func (s *AOIService) All(ctx context.Context) (*geojson.FeatureCollection, error) {
	var rows []models.AOIFeature
	err := s.db.NewSelect().
		Model(&rows).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return s.assemble(rows), nil
}

func (s *AOIService) assemble(rows []models.AOIFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		g, err := geojson.UnmarshalGeometry([]byte(row.Geometry))
		if err != nil {
			// Skip rows with unreadable geometry rather than failing the layer.
			s.logr.Warn("skipping aoi row with bad geometry",
				zap.Int64("id", row.ID), zap.Error(err))
			continue
		}
		f := geojson.NewFeature(g.Geometry())
		props := geo.Properties{Name: row.Name}
		if row.Theme != nil {
			props.Theme = *row.Theme
		}
		f.Properties = props.Map()
		fc.Append(f)
	}
	return fc
}
