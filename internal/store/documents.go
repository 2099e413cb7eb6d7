package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateDocument records a freshly uploaded document in status "uploaded".
func (s *Store) CreateDocument(ctx context.Context, caseID uuid.UUID, fileName, filePath, fileType string) (*Document, error) {
	d := &Document{
		ID:               uuid.New(),
		CaseID:           caseID,
		FileName:         fileName,
		FilePath:         filePath,
		FileType:         fileType,
		UploadedAt:       time.Now().UTC(),
		ProcessingStatus: StatusUploaded,
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return d, nil
}

// GetDocument returns a document by id.
func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*Document, error) {
	var d Document
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// GetCaseDocument returns a document only if it belongs to caseID.
func (s *Store) GetCaseDocument(ctx context.Context, caseID, id uuid.UUID) (*Document, error) {
	var d Document
	err := s.db.WithContext(ctx).
		Where("id = ? AND case_id = ?", id, caseID).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

// ListDocuments returns all documents of a case in upload order.
func (s *Store) ListDocuments(ctx context.Context, caseID uuid.UUID) ([]Document, error) {
	var docs []Document
	err := s.db.WithContext(ctx).
		Where("case_id = ?", caseID).
		Order("uploaded_at ASC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// UpdateDocument renames a document within the case and returns the updated
// row. Only the display name changes; the stored blob path stays as uploaded.
func (s *Store) UpdateDocument(ctx context.Context, caseID, id uuid.UUID, fileName string) (*Document, error) {
	res := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ? AND case_id = ?", id, caseID).
		Update("file_name", fileName)
	if res.Error != nil {
		return nil, fmt.Errorf("update document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetCaseDocument(ctx, caseID, id)
}

// DeleteDocument removes a document and its chunks (cascade) within the case.
func (s *Store) DeleteDocument(ctx context.Context, caseID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND case_id = ?", id, caseID).
		Delete(&Document{})
	if res.Error != nil {
		return fmt.Errorf("delete document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimDocument atomically moves the document into "processing". It is the
// per-document mutual exclusion point for ingestion: at most one run can
// claim a document, so duplicate queue deliveries are absorbed here. A
// document already in "processing" is rejected with ErrAlreadyProcessing.
func (s *Store) ClaimDocument(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ? AND processing_status IN ?", id,
			[]string{StatusUploaded, StatusFailed, StatusCompleted}).
		Update("processing_status", StatusProcessing)
	if res.Error != nil {
		return fmt.Errorf("claim document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Either absent or already claimed; look once more to tell them apart.
		var d Document
		err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("claim document: %w", err)
		}
		return ErrAlreadyProcessing
	}
	return nil
}

// SaveParsedContent stores the extracted text on the document record.
func (s *Store) SaveParsedContent(ctx context.Context, id uuid.UUID, content string) error {
	res := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ?", id).
		Update("parsed_content", content)
	if res.Error != nil {
		return fmt.Errorf("save parsed content: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCompleted finishes a successful ingestion run.
func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, StatusCompleted)
}

// MarkFailed records an unrecoverable ingestion error. The document stays
// eligible for reprocessing.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return s.setStatus(ctx, id, StatusFailed)
}

func (s *Store) setStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("id = ?", id).
		Update("processing_status", status)
	if res.Error != nil {
		return fmt.Errorf("set status %s: %w", status, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
