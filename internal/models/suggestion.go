package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Suggestion lifecycle states. A suggestion is pending while it sits in a
// document's ledger; accept promotes it to a GeoPoint, reject discards it.
const (
	SuggestionPending  = "pending"
	SuggestionAccepted = "accepted"
	SuggestionRejected = "rejected"
)

// Confidence tiers. Advisory only: they drive marker styling, never
// whether accept/reject is permitted.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Suggestion is a machine-extracted candidate location for a document.
type Suggestion struct {
	bun.BaseModel `bun:"table:app.geo_suggestions,alias:gs"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	DocID      int64     `bun:"doc_id,notnull" json:"doc_id"`
	Title      string    `bun:"title,notnull" json:"title"`
	Lat        float64   `bun:"lat,notnull" json:"lat"`
	Lng        float64   `bun:"lng,notnull" json:"lng"`
	Confidence string    `bun:"confidence,notnull,default:'low'" json:"confidence"`
	Status     string    `bun:"status,notnull,default:'pending'" json:"status"`
	TenantID   *string   `bun:"tenant_id" json:"tenant_id,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// SuggestionsResponse is the per-document suggestion list payload.
type SuggestionsResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}
