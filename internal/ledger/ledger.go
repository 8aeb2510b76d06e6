// Package ledger tracks machine-suggested locations for the active
// document through their accept/reject lifecycle, reconciling an in-memory
// set against the backend with a local fallback path.
//
// Offline contract: reject's fallback removes the suggestion locally, and
// accept's fallback additionally synthesizes a local document coordinate
// (kept in PendingCoords until connectivity returns), so both operations
// have full offline parity.
package ledger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ACSKamloops/shs-engine-sub003/internal/apiclient"
	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

const defaultDocLimit = 50

type Ledger struct {
	client *apiclient.Client
	logr   *zap.Logger
	notify func(string)

	mu          sync.Mutex
	activeDoc   int64
	suggestions []models.Suggestion
	docs        []models.Doc
	pending     []models.GeoPoint
}

// New builds a ledger around the given client. Each context (app shell,
// widget) constructs its own instance.
func New(client *apiclient.Client, logr *zap.Logger) *Ledger {
	if logr == nil {
		logr = zap.NewNop()
	}
	return &Ledger{
		client: client,
		logr:   logr,
		notify: func(string) {},
	}
}

// SetNoticeFunc installs the transient user-notice hook. Notices are
// informational banners, never blocking errors.
func (l *Ledger) SetNoticeFunc(f func(string)) {
	if f != nil {
		l.notify = f
	}
}

// LoadSuggestions replaces the in-memory set with the backend's answer for
// docID. Switching documents discards the prior set immediately; a fetch
// that resolves after another document became active is silently dropped.
// On remote failure the fixed local sample set is installed instead so the
// surface stays usable offline.
func (l *Ledger) LoadSuggestions(ctx context.Context, docID int64) {
	l.mu.Lock()
	l.activeDoc = docID
	l.suggestions = nil
	l.mu.Unlock()

	fetched, err := l.client.ListSuggestions(ctx, docID)
	if err != nil {
		l.logr.Warn("suggestion fetch failed, using local samples",
			zap.Int64("doc_id", docID), zap.Error(err))
		l.notify("Backend unreachable; showing sample suggestions.")
		fetched = sampleSuggestions(docID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.activeDoc != docID {
		// Stale response from before a document switch.
		l.logr.Debug("discarding stale suggestion response",
			zap.Int64("fetched_for", docID), zap.Int64("active", l.activeDoc))
		return
	}
	l.suggestions = fetched
}

// Accept promotes a suggestion into a persisted document coordinate. On
// success the doc list is reloaded first and the suggestion list second,
// in that order. On remote failure the suggestion is removed locally and a
// local coordinate is synthesized (see package contract).
func (l *Ledger) Accept(ctx context.Context, docID, suggestionID int64) {
	if err := l.client.AcceptSuggestion(ctx, docID, suggestionID); err != nil {
		l.logr.Warn("remote accept failed, applying local fallback",
			zap.Int64("doc_id", docID), zap.Int64("suggestion_id", suggestionID), zap.Error(err))
		l.notify("Backend unreachable; suggestion accepted locally.")
		l.acceptLocally(docID, suggestionID)
		return
	}
	l.runSequential(ctx, docID,
		step{"reload docs", l.reloadDocs},
		step{"reload suggestions", func(ctx context.Context) error { return l.reloadSuggestions(ctx, docID) }},
	)
}

// Reject discards a suggestion. The local fallback removes it from the
// in-memory set; this path is symmetric with the remote one.
func (l *Ledger) Reject(ctx context.Context, docID, suggestionID int64) {
	if err := l.client.RejectSuggestion(ctx, docID, suggestionID); err != nil {
		l.logr.Warn("remote reject failed, removing locally",
			zap.Int64("doc_id", docID), zap.Int64("suggestion_id", suggestionID), zap.Error(err))
		l.notify("Backend unreachable; suggestion discarded locally.")
		l.removeLocally(suggestionID)
		return
	}
	l.runSequential(ctx, docID,
		step{"reload suggestions", func(ctx context.Context) error { return l.reloadSuggestions(ctx, docID) }},
	)
}

// Suggestions returns a copy of the current in-memory set.
func (l *Ledger) Suggestions() []models.Suggestion {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Suggestion, len(l.suggestions))
	copy(out, l.suggestions)
	return out
}

// Docs returns the last loaded document list.
func (l *Ledger) Docs() []models.Doc {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Doc, len(l.docs))
	copy(out, l.docs)
	return out
}

// PendingCoords returns coordinates synthesized by offline accepts that
// still await backend persistence.
func (l *Ledger) PendingCoords() []models.GeoPoint {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.GeoPoint, len(l.pending))
	copy(out, l.pending)
	return out
}

// ActiveDoc returns the document whose suggestions are currently held.
func (l *Ledger) ActiveDoc() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeDoc
}

// step is one stage of an explicit sequential pipeline. Making the chain a
// named list keeps the ordering guarantee visible instead of burying it in
// call nesting.
type step struct {
	name string
	run  func(context.Context) error
}

func (l *Ledger) runSequential(ctx context.Context, docID int64, steps ...step) {
	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			l.logr.Warn("pipeline step failed",
				zap.String("step", s.name), zap.Int64("doc_id", docID), zap.Error(err))
			return
		}
	}
}

func (l *Ledger) reloadDocs(ctx context.Context) error {
	docs, err := l.client.ListDocs(ctx, models.DocQueryParams{Limit: defaultDocLimit})
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.docs = docs
	l.mu.Unlock()
	return nil
}

func (l *Ledger) reloadSuggestions(ctx context.Context, docID int64) error {
	fetched, err := l.client.ListSuggestions(ctx, docID)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.activeDoc != docID {
		return nil
	}
	l.suggestions = fetched
	return nil
}

func (l *Ledger) acceptLocally(docID, suggestionID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.suggestions {
		if s.ID == suggestionID {
			l.pending = append(l.pending, models.GeoPoint{
				DocID: docID,
				Lat:   s.Lat,
				Lng:   s.Lng,
				Label: s.Title,
			})
			break
		}
	}
	l.suggestions = without(l.suggestions, suggestionID)
}

func (l *Ledger) removeLocally(suggestionID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.suggestions = without(l.suggestions, suggestionID)
}

// without is filter-based so removing an absent id is naturally a no-op.
func without(in []models.Suggestion, id int64) []models.Suggestion {
	out := in[:0]
	for _, s := range in {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}
