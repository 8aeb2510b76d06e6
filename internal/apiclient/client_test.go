package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

func TestSearchDecodesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/search" {
			t.Errorf("path: got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "treaty" {
			t.Errorf("q: got %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"id":3,"title":"Treaty map","status":"indexed","snippet":"..."}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	results, err := c.Search(context.Background(), "treaty", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ID != 3 || results[0].Title != "Treaty map" {
		t.Errorf("results: got %+v", results)
	}
}

func TestNon2xxBecomesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "document not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	_, err := c.GetDoc(context.Background(), 99)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want StatusError", err)
	}
	if se.Status != http.StatusNotFound {
		t.Errorf("status: got %d", se.Status)
	}
}

func TestAPIKeyHeaderSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-Key"); got != "sekrit" {
			t.Errorf("api key header: got %q", got)
		}
		_, _ = w.Write([]byte(`{"docs":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sekrit", nil)
	if _, err := c.ListDocs(context.Background(), models.DocQueryParams{}); err != nil {
		t.Fatal(err)
	}
}

func TestImportKMZSendsMultipartFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("theme"); got != "treaty" {
			t.Errorf("theme: got %q", got)
		}
		if got := r.FormValue("doc_id"); got != "7" {
			t.Errorf("doc_id: got %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if hdr.Filename != "area.kml" {
			t.Errorf("filename: got %q", hdr.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","features":2,"aois_added":2}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	result, err := c.ImportKMZ(context.Background(), "area.kml", []byte("<kml/>"), "", "treaty", 7)
	if err != nil {
		t.Fatal(err)
	}
	if result.Features != 2 || result.AOIsAdded != 2 {
		t.Errorf("result: got %+v", result)
	}
}

func TestGeoJSONQuarantinesInvalidFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"doc_id":4,"title":"ok"}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[3,4]},"properties":{"title":42}}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	fc, err := c.GeoJSON(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("features after quarantine: got %d want 1", len(fc.Features))
	}
}
