package compose

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ACSKamloops/shs-engine-sub003/internal/apiclient"
	"github.com/ACSKamloops/shs-engine-sub003/internal/geo"
	"github.com/ACSKamloops/shs-engine-sub003/internal/ledger"
	"github.com/ACSKamloops/shs-engine-sub003/internal/registry"
)

func docPoint(docID int64, lng, lat float64) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{lng, lat})
	f.Properties = geo.Properties{DocID: docID, Title: "doc point"}.Map()
	return f
}

func themedPolygon(theme string) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}})
	f.Properties = geo.Properties{Name: "area", Theme: theme}.Map()
	return f
}

func collection(features ...*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = features
	return fc
}

// offlineLedger returns a ledger populated with the sample fallback set.
func offlineLedger(docID int64) *ledger.Ledger {
	l := ledger.New(apiclient.New("http://127.0.0.1:1", "", nil), nil)
	l.LoadSuggestions(context.Background(), docID)
	return l
}

func TestSuggestionsToggleExcludesLedgerFeatures(t *testing.T) {
	reg := registry.New("", nil)
	led := offlineLedger(7)
	if len(led.Suggestions()) == 0 {
		t.Fatal("ledger should hold sample suggestions")
	}

	filters := DefaultFilters()
	filters.ShowSuggestions = false
	view := Compose(reg, led, filters)

	for _, f := range view.Features().Features {
		p, _ := geo.FeatureProperties(f)
		if p.Confidence != "" {
			t.Errorf("suggestion feature leaked into view: %+v", p)
		}
	}
	if len(view.Features().Features) != 0 {
		t.Errorf("expected empty view, got %d features", len(view.Features().Features))
	}
}

func TestSuggestionsCarryConfidence(t *testing.T) {
	view := Compose(registry.New("", nil), offlineLedger(7), DefaultFilters())

	feats := view.Features().Features
	if len(feats) != 3 {
		t.Fatalf("features: got %d want 3", len(feats))
	}
	p, ok := geo.FeatureProperties(feats[0])
	if !ok || p.Confidence == "" || p.DocID != 7 {
		t.Errorf("suggestion properties: got %+v", p)
	}
}

func TestThemeFilterOnBoundaryLayers(t *testing.T) {
	reg := registry.New("", nil)
	reg.AddSystemLayer(registry.KindBoundary, "territories",
		collection(themedPolygon("treaty"), themedPolygon("language")))
	reg.AddLayer("user overlay", collection(themedPolygon("unrelated")), true, "")

	filters := DefaultFilters()
	filters.ShowSuggestions = false
	filters.Theme = "treaty"
	view := Compose(reg, nil, filters)

	// Boundary features are restricted to the matching theme; the user
	// layer is untouched by the theme filter.
	if got := len(view.Features().Features); got != 2 {
		t.Errorf("features: got %d want 2", got)
	}
}

func TestThemeMatchIsCaseSensitive(t *testing.T) {
	reg := registry.New("", nil)
	reg.AddSystemLayer(registry.KindBoundary, "territories", collection(themedPolygon("Treaty")))

	filters := DefaultFilters()
	filters.ShowSuggestions = false
	filters.Theme = "treaty"
	view := Compose(reg, nil, filters)

	if len(view.Features().Features) != 0 {
		t.Error("theme match must be case-sensitive")
	}
}

func TestHiddenLayerExcluded(t *testing.T) {
	reg := registry.New("", nil)
	id := reg.AddLayer("overlay", collection(docPoint(1, 0, 0)), true, "")
	hidden := false
	reg.UpdateLayer(id, registry.Patch{Visible: &hidden})

	filters := DefaultFilters()
	filters.ShowSuggestions = false
	view := Compose(reg, nil, filters)

	if len(view.Features().Features) != 0 {
		t.Error("hidden layer contributed features")
	}
}

func TestFocusOnDocument(t *testing.T) {
	reg := registry.New("", nil)
	reg.AddSystemLayer(registry.KindDocument, "doc points",
		collection(docPoint(42, -120.5, 50.7), docPoint(42, -121.0, 51.2), docPoint(9, -100, 40)))

	filters := DefaultFilters()
	filters.ShowSuggestions = false
	view := Compose(reg, nil, filters)

	b, ok := view.FocusOnDocument(42)
	if !ok {
		t.Fatal("expected a bound for doc 42")
	}
	if b.Min.X() != -121.0 || b.Max.X() != -120.5 || b.Min.Y() != 50.7 || b.Max.Y() != 51.2 {
		t.Errorf("bound: got %+v", b)
	}
}

func TestFocusOnUnknownDocumentReturnsNoBound(t *testing.T) {
	view := Compose(registry.New("", nil), nil, DefaultFilters())

	if _, ok := view.FocusOnDocument(42); ok {
		t.Error("expected no bound for unknown document")
	}
}

func TestViewportFeatures(t *testing.T) {
	reg := registry.New("", nil)
	reg.AddSystemLayer(registry.KindDocument, "doc points",
		collection(docPoint(1, 10, 10), docPoint(2, 50, 50)))

	filters := DefaultFilters()
	filters.ShowSuggestions = false
	view := Compose(reg, nil, filters)

	got := view.ViewportFeatures(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{20, 20}})
	if len(got) != 1 {
		t.Fatalf("viewport features: got %d want 1", len(got))
	}
	p, _ := geo.FeatureProperties(got[0])
	if p.DocID != 1 {
		t.Errorf("wrong feature in viewport: %+v", p)
	}
}
