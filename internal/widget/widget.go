// Package widget is a standalone embeddable query client: search, geo
// retrieval and focus-highlight against the backend contract, with no
// dependency on the main application's registry or ledger. The host
// supplies the rendering runtime through the Renderer interface.
package widget

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/apiclient"
	"github.com/ACSKamloops/shs-engine-sub003/internal/geo"
	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

// ErrNoRenderer is returned by Mount when the host provides no rendering
// runtime. The message is suitable for inline display; the widget never
// fails silently.
var ErrNoRenderer = errors.New("widget: no map runtime available on the host page; embed a renderer before mounting")

const defaultLimit = 100

// Renderer is the host-page rendering runtime.
type Renderer interface {
	RenderFeatures(fc *geojson.FeatureCollection)
	RenderResults(results []models.SearchResult)
	FitBounds(b orb.Bound)
	Highlight(docID int64)
	ShowMessage(msg string)
}

// Geolocator resolves the user's position. Implementations may deny.
type Geolocator interface {
	Current(ctx context.Context) (lat, lng float64, err error)
}

// Options configure a mount. BaseURL and APIKey default to the host's
// cached values when empty.
type Options struct {
	MountID      string
	BaseURL      string
	APIKey       string
	InitialQuery string
	Limit        int
	Renderer     Renderer
	Geolocator   Geolocator
	Logger       *zap.Logger
}

type Widget struct {
	opts   Options
	client *apiclient.Client
	logr   *zap.Logger

	mu       sync.Mutex
	features *geojson.FeatureCollection // last geo fetch, unfiltered
	results  []models.SearchResult      // last search, unfiltered
	themes   []string
	theme    string // active theme filter
}

// Mount fetches the initial geo set, builds the theme option list and fits
// the view to the data bounds. It requires a Renderer.
func Mount(ctx context.Context, opts Options) (*Widget, error) {
	if opts.Renderer == nil {
		return nil, ErrNoRenderer
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	logr := opts.Logger
	if logr == nil {
		logr = zap.NewNop()
	}

	w := &Widget{
		opts:   opts,
		client: apiclient.New(opts.BaseURL, opts.APIKey, logr),
		logr:   logr,
	}

	fc, err := w.client.GeoJSON(ctx, opts.Limit)
	if err != nil {
		w.logr.Warn("initial geo fetch failed", zap.Error(err))
		opts.Renderer.ShowMessage("Could not load map data; check the backend URL.")
		fc = geojson.NewFeatureCollection()
	}

	w.mu.Lock()
	w.features = fc
	w.themes = distinctThemes(fc)
	w.mu.Unlock()

	opts.Renderer.RenderFeatures(fc)
	if len(fc.Features) > 0 {
		opts.Renderer.FitBounds(collectionBound(fc))
	}

	if opts.InitialQuery != "" {
		w.Search(ctx, opts.InitialQuery)
	}
	return w, nil
}

// Search queries the backend and renders the (theme-filtered) result list.
func (w *Widget) Search(ctx context.Context, query string) {
	results, err := w.client.Search(ctx, query, w.opts.Limit)
	if err != nil {
		w.logr.Warn("search failed", zap.String("query", query), zap.Error(err))
		w.opts.Renderer.ShowMessage("Search is unavailable right now.")
		return
	}
	w.mu.Lock()
	w.results = results
	w.mu.Unlock()
	w.render()
}

// SetTheme re-applies client-side filtering to the cached search results
// and the cached geo fetch. No network requests are issued; the caches are
// the deliberate trade for a responsive, low-traffic widget.
func (w *Widget) SetTheme(theme string) {
	w.mu.Lock()
	w.theme = theme
	w.mu.Unlock()
	w.render()
}

// Themes lists the distinct theme values seen in the last geo fetch.
func (w *Widget) Themes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.themes))
	copy(out, w.themes)
	return out
}

// FocusDoc re-centers on the cached point features of one document and
// highlights them. With no matching features the view is left unchanged.
func (w *Widget) FocusDoc(docID int64) {
	w.mu.Lock()
	fc := w.features
	w.mu.Unlock()

	var bound orb.Bound
	found := false
	for _, f := range fc.Features {
		pt, isPoint := f.Geometry.(orb.Point)
		if !isPoint {
			continue
		}
		p, ok := geo.FeatureProperties(f)
		if !ok || p.DocID != docID {
			continue
		}
		if !found {
			bound = pt.Bound()
			found = true
		} else {
			bound = bound.Union(pt.Bound())
		}
	}
	if !found {
		return
	}
	w.opts.Renderer.FitBounds(bound)
	w.opts.Renderer.Highlight(docID)
}

// Locate is best-effort geolocation: denial or absence reports a message
// and leaves the view unchanged.
func (w *Widget) Locate(ctx context.Context) {
	if w.opts.Geolocator == nil {
		w.opts.Renderer.ShowMessage("Geolocation is not available.")
		return
	}
	lat, lng, err := w.opts.Geolocator.Current(ctx)
	if err != nil {
		w.logr.Debug("geolocation denied", zap.Error(err))
		w.opts.Renderer.ShowMessage("Could not determine your location.")
		return
	}
	center := orb.Point{lng, lat}
	w.opts.Renderer.FitBounds(center.Bound().Pad(0.05))
}

// render pushes the theme-filtered view of both caches to the renderer.
func (w *Widget) render() {
	w.mu.Lock()
	theme := w.theme
	features := w.features
	results := w.results
	w.mu.Unlock()

	filtered := geojson.NewFeatureCollection()
	for _, f := range features.Features {
		p, ok := geo.FeatureProperties(f)
		if !ok {
			continue
		}
		if theme == "" || p.Theme == theme {
			filtered.Append(f)
		}
	}

	var shown []models.SearchResult
	for _, r := range results {
		if theme == "" || (r.Theme != nil && *r.Theme == theme) {
			shown = append(shown, r)
		}
	}

	w.opts.Renderer.RenderFeatures(filtered)
	w.opts.Renderer.RenderResults(shown)
}

func distinctThemes(fc *geojson.FeatureCollection) []string {
	seen := make(map[string]struct{})
	for _, f := range fc.Features {
		p, ok := geo.FeatureProperties(f)
		if !ok || p.Theme == "" {
			continue
		}
		seen[p.Theme] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func collectionBound(fc *geojson.FeatureCollection) orb.Bound {
	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		bound = bound.Union(f.Geometry.Bound())
	}
	return bound
}
