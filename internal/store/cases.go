package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateCase persists a new case owned by userID.
func (s *Store) CreateCase(ctx context.Context, userID uuid.UUID, name string) (*Case, error) {
	c := &Case{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}
	return c, nil
}

// ListCases returns all cases owned by userID, newest first.
func (s *Store) ListCases(ctx context.Context, userID uuid.UUID) ([]Case, error) {
	var cases []Case
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&cases).Error
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	return cases, nil
}

// GetCase returns the case only if it exists and is owned by userID.
// A case owned by another user is indistinguishable from a missing one.
func (s *Store) GetCase(ctx context.Context, id, userID uuid.UUID) (*Case, error) {
	var c Case
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return &c, nil
}

// UpdateCase renames a case owned by userID and returns the updated row.
func (s *Store) UpdateCase(ctx context.Context, id, userID uuid.UUID, name string) (*Case, error) {
	res := s.db.WithContext(ctx).
		Model(&Case{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("name", name)
	if res.Error != nil {
		return nil, fmt.Errorf("update case: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetCase(ctx, id, userID)
}

// DeleteCase removes the case and, via cascade, its documents, chunks, and
// reports. Raw blobs in object storage are the caller's responsibility.
func (s *Store) DeleteCase(ctx context.Context, id, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Case{})
	if res.Error != nil {
		return fmt.Errorf("delete case: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
