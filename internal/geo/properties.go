package geo

import (
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// Properties is the validated shape of the loosely-typed GeoJSON property
// bag used throughout the engine. Features whose properties cannot be
// coerced into this shape are quarantined at ingestion instead of leaking
// untyped values into composition and rendering.
type Properties struct {
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	Theme      string `json:"theme,omitempty"`
	Label      string `json:"label,omitempty"`
	DocID      int64  `json:"doc_id,omitempty"`
	Confidence string `json:"confidence,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`
}

// PropertiesFrom coerces a raw GeoJSON property map into the typed shape.
// String fields tolerate nil; doc_id accepts JSON numbers and integer types.
func PropertiesFrom(raw geojson.Properties) (Properties, error) {
	var p Properties
	var err error

	if p.Name, err = stringProp(raw, "name"); err != nil {
		return Properties{}, err
	}
	if p.Title, err = stringProp(raw, "title"); err != nil {
		return Properties{}, err
	}
	if p.Theme, err = stringProp(raw, "theme"); err != nil {
		return Properties{}, err
	}
	if p.Label, err = stringProp(raw, "label"); err != nil {
		return Properties{}, err
	}
	if p.Confidence, err = stringProp(raw, "confidence"); err != nil {
		return Properties{}, err
	}
	if p.TenantID, err = stringProp(raw, "tenant_id"); err != nil {
		return Properties{}, err
	}

	if v, ok := raw["doc_id"]; ok && v != nil {
		switch n := v.(type) {
		case float64:
			p.DocID = int64(n)
		case int:
			p.DocID = int64(n)
		case int64:
			p.DocID = n
		default:
			return Properties{}, fmt.Errorf("property doc_id: expected number, got %T", v)
		}
	}
	return p, nil
}

// Map renders the typed properties back into a GeoJSON property bag,
// omitting zero values so the wire shape stays sparse.
func (p Properties) Map() geojson.Properties {
	out := geojson.Properties{}
	if p.Name != "" {
		out["name"] = p.Name
	}
	if p.Title != "" {
		out["title"] = p.Title
	}
	if p.Theme != "" {
		out["theme"] = p.Theme
	}
	if p.Label != "" {
		out["label"] = p.Label
	}
	if p.DocID != 0 {
		out["doc_id"] = p.DocID
	}
	if p.Confidence != "" {
		out["confidence"] = p.Confidence
	}
	if p.TenantID != "" {
		out["tenant_id"] = p.TenantID
	}
	return out
}

func stringProp(raw geojson.Properties, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("property %s: expected string, got %T", key, v)
	}
	return s, nil
}

// FeatureProperties reads a feature's properties through the typed shape.
// Invalid bags come back zero-valued with ok=false; callers treat such
// features as quarantined.
func FeatureProperties(f *geojson.Feature) (Properties, bool) {
	if f == nil {
		return Properties{}, false
	}
	p, err := PropertiesFrom(f.Properties)
	if err != nil {
		return Properties{}, false
	}
	return p, true
}

// Sanitize validates every feature in the collection, rewriting property
// bags into the typed shape and dropping features that fail validation.
// It returns the number of quarantined features.
func Sanitize(fc *geojson.FeatureCollection) int {
	if fc == nil {
		return 0
	}
	kept := fc.Features[:0]
	dropped := 0
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			dropped++
			continue
		}
		p, err := PropertiesFrom(f.Properties)
		if err != nil {
			dropped++
			continue
		}
		f.Properties = p.Map()
		kept = append(kept, f)
	}
	fc.Features = kept
	return dropped
}
