package registry

import (
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func pointCollection(pts ...orb.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range pts {
		fc.Append(geojson.NewFeature(p))
	}
	return fc
}

func TestAddThenGetRoundTrip(t *testing.T) {
	r := New("", nil)
	fc := pointCollection(orb.Point{-120.5, 50.7})

	id := r.AddLayer("survey", fc, true, "#ff0000")

	l, ok := r.GetLayer(id)
	if !ok {
		t.Fatal("layer not found after add")
	}
	if l.Name != "survey" || !l.IsPublic || l.Color != "#ff0000" {
		t.Errorf("layer attributes: got %+v", l)
	}
	if len(l.Collection.Features) != 1 {
		t.Errorf("features: got %d want 1", len(l.Collection.Features))
	}
	if got := l.Collection.Features[0].Geometry.(orb.Point); got != (orb.Point{-120.5, 50.7}) {
		t.Errorf("geometry: got %v", got)
	}
}

func TestUpdateLayerMergesPatch(t *testing.T) {
	r := New("", nil)
	id := r.AddLayer("survey", pointCollection(orb.Point{0, 0}), false, "#00ff00")

	color := "#0000ff"
	public := true
	r.UpdateLayer(id, Patch{Color: &color, IsPublic: &public})

	l, _ := r.GetLayer(id)
	if l.Color != "#0000ff" || !l.IsPublic {
		t.Errorf("after patch: got %+v", l)
	}
	if l.Name != "survey" {
		t.Errorf("untouched field changed: got %q", l.Name)
	}
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	r := New("", nil)
	name := "ghost"
	r.UpdateLayer("missing", Patch{Name: &name}) // must not panic
}

func TestDeleteLayerIsIdempotent(t *testing.T) {
	r := New("", nil)
	id := r.AddLayer("survey", pointCollection(orb.Point{0, 0}), true, "")
	r.SetActive(id)

	r.DeleteLayer(id)
	r.DeleteLayer(id) // second call is a no-op

	if _, ok := r.GetLayer(id); ok {
		t.Error("layer still present after delete")
	}
	if r.Active() != "" {
		t.Errorf("active selection not cleared: %q", r.Active())
	}
}

func TestListPublicLayersFilters(t *testing.T) {
	r := New("", nil)
	r.AddLayer("public", pointCollection(orb.Point{0, 0}), true, "")
	r.AddLayer("private", pointCollection(orb.Point{1, 1}), false, "")

	public := r.ListPublicLayers()
	if len(public) != 1 || public[0].Name != "public" {
		t.Errorf("public layers: got %d", len(public))
	}
}

func TestSnapshotSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.json")

	first := New(path, nil)
	id := first.AddLayer("survey", pointCollection(orb.Point{-120.5, 50.7}), true, "#ff0000")

	second := New(path, nil)
	l, ok := second.GetLayer(id)
	if !ok {
		t.Fatal("layer lost across reload")
	}
	if l.Name != "survey" || !l.IsPublic {
		t.Errorf("reloaded layer: got %+v", l)
	}
	if len(l.Collection.Features) != 1 {
		t.Errorf("reloaded features: got %d want 1", len(l.Collection.Features))
	}
}

func TestIDsAreUnique(t *testing.T) {
	r := New("", nil)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := r.AddLayer("l", pointCollection(orb.Point{0, 0}), false, "")
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}
