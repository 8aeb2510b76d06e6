package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ACSKamloops/shs-engine-sub003/internal/apiclient"
)

func newLedgerAgainst(t *testing.T, handler http.Handler) (*Ledger, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(apiclient.New(srv.URL, "", nil), nil), srv
}

func suggestionsJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestLoadSuggestionsInstallsFetchedSet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/docs/7/suggestions",
		suggestionsJSON(`{"suggestions":[{"id":1,"doc_id":7,"title":"Kamloops","lat":50.6,"lng":-120.3,"confidence":"high","status":"pending"}]}`))
	l, _ := newLedgerAgainst(t, mux)

	l.LoadSuggestions(context.Background(), 7)

	got := l.Suggestions()
	if len(got) != 1 || got[0].ID != 1 || got[0].Title != "Kamloops" {
		t.Errorf("suggestions: got %+v", got)
	}
}

func TestLoadSuggestionsFallsBackToSamples(t *testing.T) {
	var notice string
	l := New(apiclient.New("http://127.0.0.1:1", "", nil), nil)
	l.SetNoticeFunc(func(msg string) { notice = msg })

	l.LoadSuggestions(context.Background(), 7)

	got := l.Suggestions()
	if len(got) != 3 {
		t.Fatalf("sample suggestions: got %d want 3", len(got))
	}
	if got[0].DocID != 7 {
		t.Errorf("sample doc id: got %d", got[0].DocID)
	}
	if notice == "" {
		t.Error("no user notice raised on fallback")
	}
}

func TestRejectFallbackRemovesLocally(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/docs/7/suggestions",
		suggestionsJSON(`{"suggestions":[{"id":1,"doc_id":7,"title":"A","lat":1,"lng":2},{"id":2,"doc_id":7,"title":"B","lat":3,"lng":4}]}`))
	mux.HandleFunc("POST /api/v1/docs/7/suggestions/1/reject", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	})
	l, _ := newLedgerAgainst(t, mux)
	l.LoadSuggestions(context.Background(), 7)

	l.Reject(context.Background(), 7, 1)

	got := l.Suggestions()
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("after reject: got %+v", got)
	}
	if len(l.PendingCoords()) != 0 {
		t.Error("reject must not synthesize coordinates")
	}
}

func TestAcceptFallbackSynthesizesCoordinate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/docs/7/suggestions",
		suggestionsJSON(`{"suggestions":[{"id":5,"doc_id":7,"title":"Merritt","lat":50.1,"lng":-120.7}]}`))
	mux.HandleFunc("POST /api/v1/docs/7/suggestions/5/accept", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	})
	l, _ := newLedgerAgainst(t, mux)
	l.LoadSuggestions(context.Background(), 7)

	l.Accept(context.Background(), 7, 5)

	if len(l.Suggestions()) != 0 {
		t.Error("suggestion still present after local accept")
	}
	pending := l.PendingCoords()
	if len(pending) != 1 {
		t.Fatalf("pending coords: got %d want 1", len(pending))
	}
	if pending[0].DocID != 7 || pending[0].Lat != 50.1 || pending[0].Lng != -120.7 || pending[0].Label != "Merritt" {
		t.Errorf("pending coord: got %+v", pending[0])
	}
}

func TestAcceptOfAbsentIDIsNoOp(t *testing.T) {
	l := New(apiclient.New("http://127.0.0.1:1", "", nil), nil)

	l.Accept(context.Background(), 7, 42)

	if len(l.PendingCoords()) != 0 {
		t.Error("absent suggestion produced a coordinate")
	}
}

func TestAcceptReloadsDocsThenSuggestions(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/docs/7/suggestions/5/accept", func(w http.ResponseWriter, r *http.Request) {
		record("accept")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/v1/docs", func(w http.ResponseWriter, r *http.Request) {
		record("docs")
		_, _ = w.Write([]byte(`{"docs":[{"id":7,"title":"Doc","status":"indexed"}]}`))
	})
	mux.HandleFunc("GET /api/v1/docs/7/suggestions", func(w http.ResponseWriter, r *http.Request) {
		record("suggestions")
		_, _ = w.Write([]byte(`{"suggestions":[]}`))
	})
	l, _ := newLedgerAgainst(t, mux)
	l.LoadSuggestions(context.Background(), 7)

	l.Accept(context.Background(), 7, 5)

	mu.Lock()
	defer mu.Unlock()
	// First entry is the initial load.
	want := []string{"suggestions", "accept", "docs", "suggestions"}
	if len(order) != len(want) {
		t.Fatalf("call order: got %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("call order: got %v want %v", order, want)
		}
	}
	if len(l.Docs()) != 1 {
		t.Errorf("doc list not reloaded: got %d docs", len(l.Docs()))
	}
}

func TestStaleResponseIsDiscardedOnDocumentSwitch(t *testing.T) {
	releaseA := make(chan struct{})
	aStarted := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/docs/1/suggestions", func(w http.ResponseWriter, r *http.Request) {
		close(aStarted)
		<-releaseA
		_, _ = w.Write([]byte(`{"suggestions":[{"id":11,"doc_id":1,"title":"stale","lat":0,"lng":0}]}`))
	})
	mux.HandleFunc("GET /api/v1/docs/2/suggestions",
		suggestionsJSON(`{"suggestions":[{"id":22,"doc_id":2,"title":"fresh","lat":0,"lng":0}]}`))
	l, _ := newLedgerAgainst(t, mux)

	done := make(chan struct{})
	go func() {
		l.LoadSuggestions(context.Background(), 1)
		close(done)
	}()
	<-aStarted

	// The user switches documents before doc 1's fetch resolves.
	l.LoadSuggestions(context.Background(), 2)
	close(releaseA)
	<-done

	got := l.Suggestions()
	if len(got) != 1 || got[0].ID != 22 {
		t.Errorf("ledger holds %+v, want only doc 2's suggestions", got)
	}
	if l.ActiveDoc() != 2 {
		t.Errorf("active doc: got %d want 2", l.ActiveDoc())
	}
}
