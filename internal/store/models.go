package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// VectorDimension is the embedding size for text-embedding-3-small.
// This matches embedding.Dimension (1536).
const VectorDimension = 1536

// Document processing statuses. Transitions are monotonic except for the
// reprocess path (failed/completed -> processing).
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Report generation statuses.
const (
	ReportStatusPending    = "pending"
	ReportStatusGenerating = "generating"
	ReportStatusCompleted  = "completed"
	ReportStatusFailed     = "failed"
)

// Case is the tenant-scoping unit owning documents and reports. All retrieval
// is constrained to a single case.
type Case struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"not null;index" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Case) TableName() string { return "cases" }

// Document is an uploaded file belonging to a case. The raw bytes live in
// object storage under FilePath; ParsedContent holds the extracted text once
// ingestion has run.
type Document struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID           uuid.UUID `gorm:"type:uuid;not null;index" json:"case_id"`
	FileName         string    `gorm:"not null" json:"file_name"`
	FilePath         string    `gorm:"not null" json:"file_path"`
	FileType         string    `gorm:"not null" json:"file_type"`
	UploadedAt       time.Time `gorm:"not null" json:"uploaded_at"`
	ProcessingStatus string    `gorm:"not null;default:uploaded;index" json:"processing_status"`
	ParsedContent    *string   `json:"-"`

	Case Case `gorm:"foreignKey:CaseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Document) TableName() string { return "documents" }

// Chunk is a retrievable unit of document text. Embedding stays nil until the
// embedding call for this chunk succeeds; it is written whole or not at all.
// Chunks are created only by the ingestion pipeline and are removed by
// cascade when their document is deleted.
type Chunk struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID uuid.UUID        `gorm:"type:uuid;not null;index" json:"document_id"`
	Position   int              `gorm:"not null" json:"position"`
	Content    string           `gorm:"type:text;not null" json:"content"`
	Embedding  *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt  time.Time        `gorm:"not null" json:"created_at"`

	Document Document `gorm:"foreignKey:DocumentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (Chunk) TableName() string { return "chunks" }

// ReportTemplate describes a reusable report layout. Schema is free-form
// JSONB interpreted by the caller.
type ReportTemplate struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"not null;uniqueIndex" json:"name"`
	Schema    datatypes.JSON `gorm:"type:jsonb" json:"schema"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (ReportTemplate) TableName() string { return "report_templates" }

// GeneratedReport is the persisted result of one RAG generation request.
// Reports are immutable once completed.
type GeneratedReport struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CaseID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"case_id"`
	TemplateID       *uuid.UUID `gorm:"type:uuid;index" json:"template_id,omitempty"`
	GeneratedAt      time.Time  `gorm:"not null" json:"generated_at"`
	GenerationStatus string     `gorm:"not null;default:pending" json:"generation_status"`
	Prompt           string     `gorm:"type:text;not null" json:"prompt"`
	GeneratedText    string     `gorm:"type:text" json:"generated_text"`
	UsedChunksCount  int        `gorm:"not null;default:0" json:"used_chunks_count"`

	Case Case `gorm:"foreignKey:CaseID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (GeneratedReport) TableName() string { return "generated_reports" }

// SearchResult is one row of a vector similarity query: a chunk with its
// distance to the query vector. Lower distance means more similar.
type SearchResult struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	Content    string    `json:"content"`
	Distance   float64   `json:"distance"`
}
