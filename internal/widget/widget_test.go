package widget

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

type spyRenderer struct {
	mu        sync.Mutex
	features  []*geojson.FeatureCollection
	results   [][]models.SearchResult
	fits      []orb.Bound
	highlight []int64
	messages  []string
}

func (s *spyRenderer) RenderFeatures(fc *geojson.FeatureCollection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = append(s.features, fc)
}

func (s *spyRenderer) RenderResults(results []models.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results)
}

func (s *spyRenderer) FitBounds(b orb.Bound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fits = append(s.fits, b)
}

func (s *spyRenderer) Highlight(docID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlight = append(s.highlight, docID)
}

func (s *spyRenderer) ShowMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

func (s *spyRenderer) lastFeatures() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.features) == 0 {
		return nil
	}
	return s.features[len(s.features)-1]
}

const geoBody = `{"type":"FeatureCollection","features":[
	{"type":"Feature","geometry":{"type":"Point","coordinates":[-120.3,50.6]},"properties":{"doc_id":1,"theme":"treaty","title":"A"}},
	{"type":"Feature","geometry":{"type":"Point","coordinates":[-119.2,50.7]},"properties":{"doc_id":2,"theme":"language","title":"B"}}
]}`

const searchBody = `{"results":[
	{"id":1,"title":"Treaty doc","theme":"treaty","status":"indexed","snippet":"..."},
	{"id":2,"title":"Language doc","theme":"language","status":"indexed","snippet":"..."}
]}`

func newBackend(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	requests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/geojson", func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(geoBody))
	})
	mux.HandleFunc("GET /api/v1/search", func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(searchBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestMountWithoutRenderer(t *testing.T) {
	_, err := Mount(context.Background(), Options{BaseURL: "http://127.0.0.1:1"})
	if !errors.Is(err, ErrNoRenderer) {
		t.Fatalf("got %v, want ErrNoRenderer", err)
	}
	if err.Error() == "" {
		t.Error("error must carry an explanatory message")
	}
}

func TestMountFetchesAndFits(t *testing.T) {
	srv, _ := newBackend(t)
	spy := &spyRenderer{}

	w, err := Mount(context.Background(), Options{BaseURL: srv.URL, Renderer: spy})
	if err != nil {
		t.Fatal(err)
	}
	if got := spy.lastFeatures(); got == nil || len(got.Features) != 2 {
		t.Errorf("rendered features: got %v", got)
	}
	if len(spy.fits) != 1 {
		t.Fatalf("fit calls: got %d want 1", len(spy.fits))
	}
	themes := w.Themes()
	if len(themes) != 2 || themes[0] != "language" || themes[1] != "treaty" {
		t.Errorf("themes: got %v", themes)
	}
}

func TestMountReportsBackendFailure(t *testing.T) {
	spy := &spyRenderer{}

	w, err := Mount(context.Background(), Options{BaseURL: "http://127.0.0.1:1", Renderer: spy})
	if err != nil {
		t.Fatal(err)
	}
	if len(spy.messages) == 0 {
		t.Error("expected a user-visible message on fetch failure")
	}
	if len(spy.fits) != 0 {
		t.Error("view must stay unchanged when there is no data")
	}
	if w == nil {
		t.Fatal("widget must still mount")
	}
}

func TestThemeChangeRefiltersWithoutNetwork(t *testing.T) {
	srv, requests := newBackend(t)
	spy := &spyRenderer{}

	w, err := Mount(context.Background(), Options{BaseURL: srv.URL, Renderer: spy})
	if err != nil {
		t.Fatal(err)
	}
	w.Search(context.Background(), "doc")
	before := *requests

	w.SetTheme("treaty")

	if *requests != before {
		t.Errorf("theme change issued %d extra requests", *requests-before)
	}
	fc := spy.lastFeatures()
	if len(fc.Features) != 1 {
		t.Fatalf("filtered features: got %d want 1", len(fc.Features))
	}
	shown := spy.results[len(spy.results)-1]
	if len(shown) != 1 || shown[0].Title != "Treaty doc" {
		t.Errorf("filtered results: got %+v", shown)
	}

	// Clearing the filter restores both caches.
	w.SetTheme("")
	if got := spy.lastFeatures(); len(got.Features) != 2 {
		t.Errorf("unfiltered features: got %d want 2", len(got.Features))
	}
}

func TestFocusDoc(t *testing.T) {
	srv, _ := newBackend(t)
	spy := &spyRenderer{}
	w, err := Mount(context.Background(), Options{BaseURL: srv.URL, Renderer: spy})
	if err != nil {
		t.Fatal(err)
	}
	fitsBefore := len(spy.fits)

	w.FocusDoc(2)
	if len(spy.fits) != fitsBefore+1 {
		t.Error("focus did not fit the view")
	}
	if len(spy.highlight) != 1 || spy.highlight[0] != 2 {
		t.Errorf("highlight calls: got %v", spy.highlight)
	}

	// Unknown document: view unchanged, no highlight.
	w.FocusDoc(42)
	if len(spy.fits) != fitsBefore+1 || len(spy.highlight) != 1 {
		t.Error("focus on unknown document must leave the view unchanged")
	}
}

type deniedGeolocator struct{}

func (deniedGeolocator) Current(context.Context) (float64, float64, error) {
	return 0, 0, errors.New("permission denied")
}

func TestLocateDenialLeavesViewUnchanged(t *testing.T) {
	srv, _ := newBackend(t)
	spy := &spyRenderer{}
	w, err := Mount(context.Background(), Options{
		BaseURL: srv.URL, Renderer: spy, Geolocator: deniedGeolocator{},
	})
	if err != nil {
		t.Fatal(err)
	}
	fitsBefore := len(spy.fits)

	w.Locate(context.Background())

	if len(spy.fits) != fitsBefore {
		t.Error("denied geolocation must not move the view")
	}
	if len(spy.messages) == 0 {
		t.Error("expected a user-visible message")
	}
}

func TestLocateWithoutCapability(t *testing.T) {
	srv, _ := newBackend(t)
	spy := &spyRenderer{}
	w, err := Mount(context.Background(), Options{BaseURL: srv.URL, Renderer: spy})
	if err != nil {
		t.Fatal(err)
	}

	w.Locate(context.Background())

	if len(spy.messages) == 0 {
		t.Error("expected a message when no geolocator is wired")
	}
}
