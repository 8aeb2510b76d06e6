// Package registry keeps the named layers a map view is assembled from:
// administrative boundary sets, points of interest, user-imported overlays
// and document-derived points. State survives restarts through a JSON
// snapshot on disk. Instances are constructed explicitly so independent
// contexts (app shell, embedded widget) never share one.
package registry

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Layer kinds drive the per-category visibility toggles in composition.
const (
	KindUser     = "user"
	KindBoundary = "boundary"
	KindPOI      = "poi"
	KindDocument = "document"
	KindGlobal   = "global"
)

// Layer is one named feature collection with its render attributes.
type Layer struct {
	ID         string                     `json:"id"`
	Name       string                     `json:"name"`
	Kind       string                     `json:"kind"`
	Collection *geojson.FeatureCollection `json:"collection"`
	IsPublic   bool                       `json:"is_public"`
	Color      string                     `json:"color"`
	Opacity    float64                    `json:"opacity"`
	Visible    bool                       `json:"visible"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// Patch is a partial layer update. Nil fields are left untouched.
type Patch struct {
	Name     *string  `json:"name,omitempty"`
	IsPublic *bool    `json:"is_public,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Visible  *bool    `json:"visible,omitempty"`
}

type Registry struct {
	mu     sync.Mutex
	logr   *zap.Logger
	path   string // snapshot file; empty disables persistence
	layers map[string]*Layer
	active string
}

// New builds a registry backed by the given snapshot file. A prior
// snapshot, if present, is reloaded so imported layers survive restarts.
func New(path string, logr *zap.Logger) *Registry {
	if logr == nil {
		logr = zap.NewNop()
	}
	r := &Registry{
		logr:   logr,
		path:   path,
		layers: make(map[string]*Layer),
	}
	r.load()
	return r
}

// AddLayer records a user-imported layer and returns its generated id.
func (r *Registry) AddLayer(name string, fc *geojson.FeatureCollection, isPublic bool, color string) string {
	return r.add(&Layer{
		Name:       name,
		Kind:       KindUser,
		Collection: fc,
		IsPublic:   isPublic,
		Color:      color,
	})
}

// AddSystemLayer records a non-user layer (boundary set, POI set,
// document points) fetched from the backend.
func (r *Registry) AddSystemLayer(kind, name string, fc *geojson.FeatureCollection) string {
	return r.add(&Layer{
		Name:       name,
		Kind:       kind,
		Collection: fc,
		IsPublic:   true,
	})
}

func (r *Registry) add(l *Layer) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Ids only need equality within a session; they are never reused.
	l.ID = uuid.NewString()
	l.Opacity = 1
	l.Visible = true
	l.CreatedAt = time.Now()
	r.layers[l.ID] = l
	r.persist()

	r.logr.Debug("layer added",
		zap.String("id", l.ID),
		zap.String("name", l.Name),
		zap.String("kind", l.Kind),
		zap.Int("features", len(l.Collection.Features)))
	return l.ID
}

// UpdateLayer shallow-merges the patch into the layer. An unknown id is a
// no-op, tolerating races with deletion.
func (r *Registry) UpdateLayer(id string, p Patch) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.layers[id]
	if !ok {
		return
	}
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.IsPublic != nil {
		l.IsPublic = *p.IsPublic
	}
	if p.Color != nil {
		l.Color = *p.Color
	}
	if p.Opacity != nil {
		l.Opacity = *p.Opacity
	}
	if p.Visible != nil {
		l.Visible = *p.Visible
	}
	r.persist()
}

// DeleteLayer removes the layer and clears the active selection if it
// pointed at it. Deleting an absent id is a no-op.
func (r *Registry) DeleteLayer(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.layers[id]; !ok {
		return
	}
	delete(r.layers, id)
	if r.active == id {
		r.active = ""
	}
	r.persist()
}

// GetLayer returns the layer for id, if present.
func (r *Registry) GetLayer(id string) (*Layer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.layers[id]
	return l, ok
}

// Layers returns all layers ordered by creation time.
func (r *Registry) Layers() []*Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(func(*Layer) bool { return true })
}

// ListPublicLayers filters to layers safe for read-only surfaces.
func (r *Registry) ListPublicLayers() []*Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked(func(l *Layer) bool { return l.IsPublic })
}

func (r *Registry) sortedLocked(keep func(*Layer) bool) []*Layer {
	out := make([]*Layer, 0, len(r.layers))
	for _, l := range r.layers {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SetActive marks the current selection.
func (r *Registry) SetActive(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = id
}

// Active returns the currently selected layer id, empty if none.
func (r *Registry) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

type snapshot struct {
	Layers []*Layer `json:"layers"`
}

func (r *Registry) load() {
	if r.path == "" {
		return
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.logr.Warn("failed to read layer snapshot", zap.Error(err))
		}
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logr.Warn("failed to decode layer snapshot", zap.Error(err))
		return
	}
	for _, l := range snap.Layers {
		r.layers[l.ID] = l
	}
	r.logr.Info("layer snapshot loaded", zap.Int("layers", len(snap.Layers)))
}

// persist writes the snapshot under the registry lock. Failures are logged
// and otherwise ignored: losing durability must not break the session.
func (r *Registry) persist() {
	if r.path == "" {
		return
	}
	snap := snapshot{Layers: r.sortedLocked(func(*Layer) bool { return true })}
	data, err := json.Marshal(snap)
	if err != nil {
		r.logr.Warn("failed to encode layer snapshot", zap.Error(err))
		return
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		r.logr.Warn("failed to write layer snapshot", zap.Error(err))
	}
}
