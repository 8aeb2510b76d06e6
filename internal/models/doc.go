package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Doc is an ingested document record.
type Doc struct {
	bun.BaseModel `bun:"table:app.docs,alias:d"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Theme     *string   `bun:"theme" json:"theme,omitempty"`
	DocType   *string   `bun:"doc_type" json:"doc_type,omitempty"`
	Status    string    `bun:"status,notnull,default:'indexed'" json:"status"`
	Summary   *string   `bun:"summary" json:"summary,omitempty"`
	TenantID  *string   `bun:"tenant_id" json:"tenant_id,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	// Relations
	GeoPoints []*GeoPoint `bun:"rel:has-many,join:id=doc_id" json:"geo_points,omitempty"`
}

// GeoPoint is a persisted coordinate on a document: added manually,
// promoted from a suggestion, or imported from a placemark.
type GeoPoint struct {
	bun.BaseModel `bun:"table:app.geo_points,alias:gp"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	DocID     int64     `bun:"doc_id,notnull" json:"doc_id"`
	Lat       float64   `bun:"lat,notnull" json:"lat"`
	Lng       float64   `bun:"lng,notnull" json:"lng"`
	Label     string    `bun:"label" json:"label"`
	Theme     *string   `bun:"theme" json:"theme,omitempty"`
	TenantID  *string   `bun:"tenant_id" json:"tenant_id,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// DocQueryParams filters the doc list.
type DocQueryParams struct {
	Query   string
	Theme   string
	DocType string
	Limit   int
}

// AddCoordRequest is the body of POST /docs/{id}/coords.
type AddCoordRequest struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Label string  `json:"label"`
}

// UpdateCoordRequest is the body of PATCH /docs/{id}/coords/{coordId}.
type UpdateCoordRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DocsResponse is the doc list payload.
type DocsResponse struct {
	Docs []Doc `json:"docs"`
}

// DocGeoResponse lists the persisted coordinates of one document.
type DocGeoResponse struct {
	DocID  int64      `json:"doc_id"`
	Coords []GeoPoint `json:"coords"`
}
