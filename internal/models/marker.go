package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Marker types. Markers are admin-authored points of interest, independent
// of documents and layers but rendered in the same composed view.
const (
	MarkerCamp         = "camp"
	MarkerProject      = "project"
	MarkerPartner      = "partner"
	MarkerCulturalSite = "cultural-site"
	MarkerEvent        = "event"
)

// MarkerTypes enumerates the accepted values for validation.
var MarkerTypes = []string{MarkerCamp, MarkerProject, MarkerPartner, MarkerCulturalSite, MarkerEvent}

// Marker is an administrator-managed point of interest.
type Marker struct {
	bun.BaseModel `bun:"table:app.markers,alias:m"`

	ID          string    `bun:"id,pk" json:"id"`
	Lat         float64   `bun:"lat,notnull" json:"lat"`
	Lng         float64   `bun:"lng,notnull" json:"lng"`
	Title       string    `bun:"title,notnull" json:"title"`
	Type        string    `bun:"type,notnull" json:"type"`
	IsPublic    bool      `bun:"is_public,notnull,default:false" json:"is_public"`
	Description *string   `bun:"description" json:"description,omitempty"`
	Website     *string   `bun:"website" json:"website,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// MarkerRequest is the create/update body for a marker.
type MarkerRequest struct {
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Type        *string  `json:"type,omitempty"`
	IsPublic    *bool    `json:"is_public,omitempty"`
	Description *string  `json:"description,omitempty"`
	Website     *string  `json:"website,omitempty"`
}

// MarkersResponse is the marker list payload.
type MarkersResponse struct {
	Markers []Marker `json:"markers"`
	Count   int      `json:"count"`
}
