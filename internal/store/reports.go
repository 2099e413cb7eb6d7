package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateReport persists a finished generation result. Reports are written
// once, after generation succeeds; a failed generation leaves no row behind.
func (s *Store) CreateReport(ctx context.Context, r *GeneratedReport) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// ListReports returns all reports of a case, newest first.
func (s *Store) ListReports(ctx context.Context, caseID uuid.UUID) ([]GeneratedReport, error) {
	var reports []GeneratedReport
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("generated_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// GetReport returns a report only if it belongs to caseID.
func (s *Store) GetReport(ctx context.Context, caseID, id uuid.UUID) (*GeneratedReport, error) {
	var r GeneratedReport
	err := s.db.WithContext(ctx).
		Where("id = ? AND case_id = ?", id, caseID).
		First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &r, nil
}

// CreateTemplate persists a named report template.
func (s *Store) CreateTemplate(ctx context.Context, name string, schema datatypes.JSON) (*ReportTemplate, error) {
	t := &ReportTemplate{
		ID:        uuid.New(),
		Name:      name,
		Schema:    schema,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates, newest first.
func (s *Store) ListTemplates(ctx context.Context) ([]ReportTemplate, error) {
	var templates []ReportTemplate
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// GetTemplate returns a template by id.
func (s *Store) GetTemplate(ctx context.Context, id uuid.UUID) (*ReportTemplate, error) {
	var t ReportTemplate
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return &t, nil
}
