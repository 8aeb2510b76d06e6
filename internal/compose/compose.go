// Package compose assembles the renderable view from the layer registry
// and the suggestion ledger: visibility and theme filtering, focus
// (fit-to-bounds) queries, and an rtree viewport index over the composed
// set.
package compose

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/rtree"

	"github.com/ACSKamloops/shs-engine-sub003/internal/geo"
	"github.com/ACSKamloops/shs-engine-sub003/internal/ledger"
	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
	"github.com/ACSKamloops/shs-engine-sub003/internal/registry"
)

// Filters govern which sources contribute to the composed view. Theme is
// a case-sensitive exact match against the feature's theme property;
// empty means no restriction.
type Filters struct {
	ShowDocuments   bool
	ShowSuggestions bool
	ShowBoundaries  bool
	ShowPOI         bool
	ShowGlobal      bool
	ShowUserLayers  bool
	Theme           string
}

// DefaultFilters shows everything with no theme restriction.
func DefaultFilters() Filters {
	return Filters{
		ShowDocuments:   true,
		ShowSuggestions: true,
		ShowBoundaries:  true,
		ShowPOI:         true,
		ShowGlobal:      true,
		ShowUserLayers:  true,
	}
}

func (f Filters) kindVisible(kind string) bool {
	switch kind {
	case registry.KindDocument:
		return f.ShowDocuments
	case registry.KindBoundary:
		return f.ShowBoundaries
	case registry.KindPOI:
		return f.ShowPOI
	case registry.KindGlobal:
		return f.ShowGlobal
	case registry.KindUser:
		return f.ShowUserLayers
	default:
		return false
	}
}

// themed layer kinds honor the theme filter at feature granularity.
func themed(kind string) bool {
	return kind == registry.KindBoundary || kind == registry.KindPOI
}

// View is one composed snapshot of the visible features.
type View struct {
	fc    *geojson.FeatureCollection
	index *rtree.RTreeG[*geojson.Feature]
}

// Compose merges every visible layer plus the ledger's suggestions into a
// single collection. Features are never deduplicated across layers; a
// boundary and an imported overlay may legitimately cover the same ground.
func Compose(reg *registry.Registry, led *ledger.Ledger, f Filters) *View {
	fc := geojson.NewFeatureCollection()

	for _, layer := range reg.Layers() {
		if !layer.Visible || !f.kindVisible(layer.Kind) {
			continue
		}
		for _, feat := range layer.Collection.Features {
			if themed(layer.Kind) && f.Theme != "" {
				p, ok := geo.FeatureProperties(feat)
				if !ok || p.Theme != f.Theme {
					continue
				}
			}
			fc.Append(feat)
		}
	}

	if f.ShowSuggestions && led != nil {
		for _, s := range led.Suggestions() {
			fc.Append(suggestionFeature(s))
		}
	}

	var index rtree.RTreeG[*geojson.Feature]
	for _, feat := range fc.Features {
		b := feat.Geometry.Bound()
		index.Insert([2]float64{b.Min.X(), b.Min.Y()}, [2]float64{b.Max.X(), b.Max.Y()}, feat)
	}

	return &View{fc: fc, index: &index}
}

// suggestionFeature renders a pending suggestion as a point feature.
// Confidence travels as a property so styling stays a render concern.
func suggestionFeature(s models.Suggestion) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{s.Lng, s.Lat})
	f.Properties = geo.Properties{
		Title:      s.Title,
		DocID:      s.DocID,
		Confidence: s.Confidence,
		Label:      "suggestion",
	}.Map()
	return f
}

// Features returns the composed collection.
func (v *View) Features() *geojson.FeatureCollection {
	return v.fc
}

// ViewportFeatures returns the features whose bounds intersect b.
func (v *View) ViewportFeatures(b orb.Bound) []*geojson.Feature {
	var out []*geojson.Feature
	v.index.Search([2]float64{b.Min.X(), b.Min.Y()}, [2]float64{b.Max.X(), b.Max.Y()},
		func(_, _ [2]float64, f *geojson.Feature) bool {
			out = append(out, f)
			return true
		})
	return out
}

// FocusOnDocument returns the bound covering every point feature whose
// doc_id matches, for a fit-to-view zoom. ok is false when the document
// has no points; callers leave the current view unchanged in that case.
func (v *View) FocusOnDocument(docID int64) (orb.Bound, bool) {
	var bound orb.Bound
	found := false
	for _, feat := range v.fc.Features {
		pt, isPoint := feat.Geometry.(orb.Point)
		if !isPoint {
			continue
		}
		p, okProps := geo.FeatureProperties(feat)
		if !okProps || p.DocID != docID {
			continue
		}
		b := pt.Bound()
		if !found {
			bound = b
			found = true
		} else {
			bound = bound.Union(b)
		}
	}
	return bound, found
}
