package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AOIFeature is one stored area-of-interest feature. Geometry is kept as
// GeoJSON text and assembled into feature collections on read.
type AOIFeature struct {
	bun.BaseModel `bun:"table:app.aoi_features,alias:aoi"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	LayerName string    `bun:"layer_name,notnull" json:"layer_name"`
	Name      string    `bun:"name,notnull" json:"name"`
	Theme     *string   `bun:"theme" json:"theme,omitempty"`
	Geometry  string    `bun:"geometry,notnull" json:"geometry"`
	TenantID  *string   `bun:"tenant_id" json:"tenant_id,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ImportResult reports what a KMZ/KML/GeoJSON import produced.
type ImportResult struct {
	Status      string `json:"status"`
	Layer       string `json:"layer"`
	Features    int    `json:"features"`
	PointsAdded int    `json:"points_added"`
	AOIsAdded   int    `json:"aois_added"`
	Quarantined int    `json:"quarantined,omitempty"`
}
