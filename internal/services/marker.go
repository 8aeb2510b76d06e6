package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ACSKamloops/shs-engine-sub003/internal/models"
)

var ErrMarkerNotFound = errors.New("marker not found")

// MarkerService handles admin-authored points of interest.
type MarkerService struct {
	db *bun.DB
}

func NewMarkerService(db *bun.DB) *MarkerService {
	return &MarkerService{db: db}
}

// List returns markers, optionally restricted to given types and/or to
// public entries only.
func (s *MarkerService) List(ctx context.Context, types []string, publicOnly bool) ([]models.Marker, error) {
	var markers []models.Marker

	q := s.db.NewSelect().Model(&markers)
	if len(types) > 0 {
		q = q.Where("type IN (?)", bun.In(types))
	}
	if publicOnly {
		q = q.Where("is_public = TRUE")
	}

	err := q.Order("created_at DESC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return markers, nil
}

// Create stores a new marker with a generated id.
func (s *MarkerService) Create(ctx context.Context, req models.MarkerRequest) (*models.Marker, error) {
	now := time.Now()
	m := &models.Marker{
		ID:          uuid.NewString(),
		Title:       deref(req.Title, ""),
		Type:        deref(req.Type, models.MarkerProject),
		IsPublic:    req.IsPublic != nil && *req.IsPublic,
		Description: req.Description,
		Website:     req.Website,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Lat != nil {
		m.Lat = *req.Lat
	}
	if req.Lng != nil {
		m.Lng = *req.Lng
	}

	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Update patches the given fields and refreshes UpdatedAt.
func (s *MarkerService) Update(ctx context.Context, id string, req models.MarkerRequest) (*models.Marker, error) {
	m := new(models.Marker)
	err := s.db.NewSelect().Model(m).Where("m.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMarkerNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Lat != nil {
		m.Lat = *req.Lat
	}
	if req.Lng != nil {
		m.Lng = *req.Lng
	}
	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.Type != nil {
		m.Type = *req.Type
	}
	if req.IsPublic != nil {
		m.IsPublic = *req.IsPublic
	}
	if req.Description != nil {
		m.Description = req.Description
	}
	if req.Website != nil {
		m.Website = req.Website
	}
	// Timestamps refresh on every mutation.
	m.UpdatedAt = time.Now()

	if _, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a marker.
func (s *MarkerService) Delete(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().
		Model((*models.Marker)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrMarkerNotFound
	}
	return nil
}

func deref(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
