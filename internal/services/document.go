package services

import (
	"context"
	"strings"

	"github.com/uptrace/bun"

	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

// DocumentService handles document records and their persisted coordinates.
type DocumentService struct {
	db *bun.DB
}

func NewDocumentService(db *bun.DB) *DocumentService {
	return &DocumentService{db: db}
}

// ListDocs returns documents matching the optional filters.
func (s *DocumentService) ListDocs(ctx context.Context, params models.DocQueryParams) ([]models.Doc, error) {
	var docs []models.Doc

	q := s.db.NewSelect().Model(&docs)
	if params.Query != "" {
		pattern := "%" + params.Query + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("title ILIKE ?", pattern).WhereOr("summary ILIKE ?", pattern)
		})
	}
	if params.Theme != "" {
		q = q.Where("theme ILIKE ?", "%"+params.Theme+"%")
	}
	if params.DocType != "" {
		q = q.Where("doc_type ILIKE ?", "%"+params.DocType+"%")
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	err := q.Order("created_at DESC").Limit(limit).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDoc returns a single document by id.
func (s *DocumentService) GetDoc(ctx context.Context, id int64) (*models.Doc, error) {
	doc := new(models.Doc)
	err := s.db.NewSelect().
		Model(doc).
		Where("d.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Search matches the query against title and summary and builds snippets.
func (s *DocumentService) Search(ctx context.Context, params models.DocQueryParams) ([]models.SearchResult, error) {
	docs, err := s.ListDocs(ctx, params)
	if err != nil {
		return nil, err
	}
	results := make([]models.SearchResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, models.SearchResult{
			ID:      d.ID,
			Title:   d.Title,
			Theme:   d.Theme,
			DocType: d.DocType,
			Status:  d.Status,
			Snippet: Snippet(d.Summary, 200),
		})
	}
	return results, nil
}

// Snippet trims a summary for list display, cutting on a rune boundary.
func Snippet(summary *string, max int) string {
	if summary == nil {
		return ""
	}
	s := strings.TrimSpace(*summary)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

// ListCoords returns the persisted coordinates of a document.
func (s *DocumentService) ListCoords(ctx context.Context, docID int64) ([]models.GeoPoint, error) {
	var coords []models.GeoPoint
	err := s.db.NewSelect().
		Model(&coords).
		Where("doc_id = ?", docID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return coords, nil
}

// AddCoord attaches a coordinate to a document. The document must exist.
func (s *DocumentService) AddCoord(ctx context.Context, docID int64, req models.AddCoordRequest) (*models.GeoPoint, error) {
	doc, err := s.GetDoc(ctx, docID)
	if err != nil {
		return nil, err
	}
	label := req.Label
	if label == "" {
		label = doc.Title
	}
	point := &models.GeoPoint{
		DocID: docID,
		Lat:   req.Lat,
		Lng:   req.Lng,
		Label: label,
		Theme: doc.Theme,
	}
	if _, err := s.db.NewInsert().Model(point).Exec(ctx); err != nil {
		return nil, err
	}
	return point, nil
}

// UpdateCoord moves an existing coordinate (drag-to-move).
func (s *DocumentService) UpdateCoord(ctx context.Context, docID, coordID int64, req models.UpdateCoordRequest) error {
	_, err := s.db.NewUpdate().
		Model((*models.GeoPoint)(nil)).
		Set("lat = ?", req.Lat).
		Set("lng = ?", req.Lng).
		Where("id = ?", coordID).
		Where("doc_id = ?", docID).
		Exec(ctx)
	return err
}

// DeleteCoord clears a coordinate from a document.
func (s *DocumentService) DeleteCoord(ctx context.Context, docID, coordID int64) error {
	_, err := s.db.NewDelete().
		Model((*models.GeoPoint)(nil)).
		Where("id = ?", coordID).
		Where("doc_id = ?", docID).
		Exec(ctx)
	return err
}
