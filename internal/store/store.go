// Package store persists cases, documents, chunks, templates, and reports in
// Postgres. It is the single source of truth for document and report state,
// and doubles as the retrieval index via the pgvector distance operator.
package store

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the gorm connection. All methods are safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and runs migrations, including the pgvector
// extension and the vector index on chunks.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("enable pgvector extension: %w", err)
	}

	err := s.db.AutoMigrate(
		&Case{},
		&Document{},
		&Chunk{},
		&ReportTemplate{},
		&GeneratedReport{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}

	// HNSW index keeps similarity queries fast as the chunk count grows.
	err = s.db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING hnsw (embedding vector_l2_ops)",
	).Error
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	return nil
}

// Close releases the underlying database connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
