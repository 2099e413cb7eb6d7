package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ReplaceChunks swaps the chunk set of a document in one transaction: any
// chunks from a previous run are removed, then the new texts are inserted in
// order with positions 0..n-1. Embeddings start out unset. Zero texts is a
// valid call that simply leaves the document chunkless.
func (s *Store) ReplaceChunks(ctx context.Context, documentID uuid.UUID, texts []string) ([]Chunk, error) {
	now := time.Now().UTC()
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			ID:         uuid.New(),
			DocumentID: documentID,
			Position:   i,
			Content:    text,
			CreatedAt:  now,
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&Chunk{}).Error; err != nil {
			return fmt.Errorf("delete previous chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.Create(&chunks).Error; err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replace chunks: %w", err)
	}
	return chunks, nil
}

// SetEmbedding writes the full vector for one chunk. The write is a single
// column update, so the embedding is either stored whole or not at all.
func (s *Store) SetEmbedding(ctx context.Context, chunkID uuid.UUID, embedding []float32) error {
	if len(embedding) != VectorDimension {
		return fmt.Errorf("%w: got %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), VectorDimension)
	}

	vec := pgvector.NewVector(embedding)
	res := s.db.WithContext(ctx).
		Model(&Chunk{}).
		Where("id = ?", chunkID).
		Update("embedding", vec)
	if res.Error != nil {
		return fmt.Errorf("set embedding: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListChunks returns a document's chunks in position order.
func (s *Store) ListChunks(ctx context.Context, documentID uuid.UUID) ([]Chunk, error) {
	var chunks []Chunk
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("position ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	return chunks, nil
}

// SearchChunks runs the vector similarity query, scoped to the given case.
// The case filter is applied here regardless of what the caller checked:
// retrieval must never cross a case boundary. Chunks without an embedding are
// excluded. Results come back nearest first; ties resolve by insertion order
// so the ordering is deterministic. The vector and case id are typed bind
// parameters, never formatted into the SQL text.
func (s *Store) SearchChunks(ctx context.Context, caseID uuid.UUID, query []float32, limit int) ([]SearchResult, error) {
	if len(query) != VectorDimension {
		return nil, fmt.Errorf("%w: got %d dimensions, expected %d",
			ErrInvalidQuery, len(query), VectorDimension)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidQuery)
	}

	var results []SearchResult
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			chunks.id AS chunk_id,
			chunks.document_id AS document_id,
			chunks.content AS content,
			chunks.embedding <-> ? AS distance
		FROM chunks
		JOIN documents ON documents.id = chunks.document_id
		WHERE documents.case_id = ?
		  AND chunks.embedding IS NOT NULL
		ORDER BY distance ASC, chunks.created_at ASC, chunks.position ASC
		LIMIT ?`,
		pgvector.NewVector(query), caseID, limit,
	).Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return results, nil
}
