// Package ingest drives the document-to-retrieval pipeline: download,
// extract, chunk, embed, persist — once per uploaded document, off the
// request path.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bull/casereport/internal/chunker"
	"github.com/bull/casereport/internal/extract"
	"github.com/bull/casereport/internal/metrics"
	"github.com/bull/casereport/internal/store"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	GetDocument(ctx context.Context, id uuid.UUID) (*store.Document, error)
	ClaimDocument(ctx context.Context, id uuid.UUID) error
	SaveParsedContent(ctx context.Context, id uuid.UUID, content string) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	ReplaceChunks(ctx context.Context, documentID uuid.UUID, texts []string) ([]store.Chunk, error)
	SetEmbedding(ctx context.Context, chunkID uuid.UUID, embedding []float32) error
}

// Downloader fetches raw document bytes from object storage.
type Downloader interface {
	Download(ctx context.Context, path string) ([]byte, error)
}

// Embedder turns one chunk text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline processes one document per call. Per-document mutual exclusion is
// enforced by the store's claim, so re-deliveries and concurrent triggers for
// the same document cannot race chunk creation.
type Pipeline struct {
	store    Store
	blobs    Downloader
	embedder Embedder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewPipeline creates an ingestion pipeline with the given components.
// metrics may be nil; a nil logger falls back to slog.Default().
func NewPipeline(s Store, blobs Downloader, embedder Embedder, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    s,
		blobs:    blobs,
		embedder: embedder,
		metrics:  m,
		logger:   logger,
	}
}

// Process runs the full pipeline for one document. The document ends in
// status "completed" on success — even when some chunk embeddings failed,
// since the document is still retrievable through the chunks that did embed —
// or "failed" on any error before embedding starts. Chunks committed before a
// failure are left in place; a future reprocessing run replaces them.
//
// A document already being processed returns store.ErrAlreadyProcessing
// untouched, which queue consumers treat as a duplicate delivery.
func (p *Pipeline) Process(ctx context.Context, documentID uuid.UUID) error {
	if err := p.store.ClaimDocument(ctx, documentID); err != nil {
		return err
	}

	// The claim moved the document into "processing"; every exit below must
	// leave it in a terminal status or it can never be claimed again.
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		p.logger.Error("Fetching claimed document failed", "document_id", documentID, "error", err)
		if markErr := p.store.MarkFailed(ctx, documentID); markErr != nil {
			p.logger.Error("Failed to mark document failed", "document_id", documentID, "error", markErr)
		}
		p.countProcessed(store.StatusFailed)
		return err
	}
	p.logger.Info("Processing document", "document_id", doc.ID, "file", doc.FileName)

	chunkCount, embedded, err := p.run(ctx, doc)
	if err != nil {
		p.logger.Error("Document processing failed", "document_id", doc.ID, "error", err)
		if markErr := p.store.MarkFailed(ctx, doc.ID); markErr != nil {
			p.logger.Error("Failed to mark document failed", "document_id", doc.ID, "error", markErr)
		}
		p.countProcessed(store.StatusFailed)
		return err
	}

	if err := p.store.MarkCompleted(ctx, doc.ID); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	p.countProcessed(store.StatusCompleted)
	p.logger.Info("Document processed",
		"document_id", doc.ID,
		"chunks", chunkCount,
		"embedded", embedded,
	)
	return nil
}

// run executes the fallible middle of the pipeline and reports how many
// chunks were created and how many of those received an embedding.
func (p *Pipeline) run(ctx context.Context, doc *store.Document) (int, int, error) {
	data, err := p.blobs.Download(ctx, doc.FilePath)
	if err != nil {
		return 0, 0, fmt.Errorf("download: %w", err)
	}

	text, err := extract.Extract(data, doc.FileType)
	if err != nil {
		return 0, 0, fmt.Errorf("extract: %w", err)
	}
	if err := p.store.SaveParsedContent(ctx, doc.ID, text); err != nil {
		return 0, 0, err
	}

	// Zero chunks is a valid outcome for an empty document.
	texts := chunker.Split(text)
	chunks, err := p.store.ReplaceChunks(ctx, doc.ID, texts)
	if err != nil {
		return 0, 0, err
	}
	if p.metrics != nil {
		p.metrics.ChunksCreated.Add(float64(len(chunks)))
	}

	// Embed sequentially. A failure here only skips the one chunk: the run
	// still completes and the chunk stays eligible for a later retry.
	embedded := 0
	for _, chunk := range chunks {
		vec, err := p.embedder.Embed(ctx, chunk.Content)
		if err != nil {
			p.logger.Warn("Embedding failed, skipping chunk",
				"document_id", doc.ID, "chunk_id", chunk.ID, "error", err)
			if p.metrics != nil {
				p.metrics.EmbeddingFailures.Inc()
			}
			continue
		}
		if err := p.store.SetEmbedding(ctx, chunk.ID, vec); err != nil {
			p.logger.Warn("Storing embedding failed, skipping chunk",
				"document_id", doc.ID, "chunk_id", chunk.ID, "error", err)
			if p.metrics != nil {
				p.metrics.EmbeddingFailures.Inc()
			}
			continue
		}
		embedded++
		if p.metrics != nil {
			p.metrics.ChunksEmbedded.Inc()
		}
	}

	return len(chunks), embedded, nil
}

func (p *Pipeline) countProcessed(status string) {
	if p.metrics != nil {
		p.metrics.DocumentsProcessed.WithLabelValues(status).Inc()
	}
}
