package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/ACSKamloops/shs-engine-sub003/internal/live"
	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

// ErrSuggestionNotFound covers both an unknown id and an id belonging to a
// different document.
var ErrSuggestionNotFound = errors.New("suggestion not found")

// SuggestionService owns the accept/reject lifecycle of machine-suggested
// locations.
type SuggestionService struct {
	db     *bun.DB
	events *live.Hub
}

func NewSuggestionService(db *bun.DB, events *live.Hub) *SuggestionService {
	return &SuggestionService{db: db, events: events}
}

// ListPending returns a document's pending suggestions, newest first.
func (s *SuggestionService) ListPending(ctx context.Context, docID int64) ([]models.Suggestion, error) {
	var suggestions []models.Suggestion
	err := s.db.NewSelect().
		Model(&suggestions).
		Where("doc_id = ?", docID).
		Where("status = ?", models.SuggestionPending).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// Accept promotes a pending suggestion into a persisted document
// coordinate and marks it accepted, atomically.
func (s *SuggestionService) Accept(ctx context.Context, docID, suggestionID int64) error {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		sug := new(models.Suggestion)
		err := tx.NewSelect().
			Model(sug).
			Where("gs.id = ?", suggestionID).
			Where("gs.status = ?", models.SuggestionPending).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSuggestionNotFound
		}
		if err != nil {
			return err
		}
		if sug.DocID != docID {
			return fmt.Errorf("%w: belongs to another document", ErrSuggestionNotFound)
		}

		doc := new(models.Doc)
		if err := tx.NewSelect().Model(doc).Where("d.id = ?", docID).Scan(ctx); err != nil {
			return err
		}

		point := &models.GeoPoint{
			DocID: docID,
			Lat:   sug.Lat,
			Lng:   sug.Lng,
			Label: sug.Title,
			Theme: doc.Theme,
		}
		if _, err := tx.NewInsert().Model(point).Exec(ctx); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.Suggestion)(nil)).
			Set("status = ?", models.SuggestionAccepted).
			Where("id = ?", suggestionID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.events.Broadcast(live.Event{
		Type:    live.SuggestionAccepted,
		Payload: map[string]int64{"doc_id": docID, "suggestion_id": suggestionID},
	})
	return nil
}

// Reject marks a pending suggestion rejected.
func (s *SuggestionService) Reject(ctx context.Context, docID, suggestionID int64) error {
	res, err := s.db.NewUpdate().
		Model((*models.Suggestion)(nil)).
		Set("status = ?", models.SuggestionRejected).
		Where("id = ?", suggestionID).
		Where("doc_id = ?", docID).
		Where("status = ?", models.SuggestionPending).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSuggestionNotFound
	}
	s.events.Broadcast(live.Event{
		Type:    live.SuggestionRejected,
		Payload: map[string]int64{"doc_id": docID, "suggestion_id": suggestionID},
	})
	return nil
}
