// Package api exposes the HTTP surface: case and document management,
// vector search, and report generation.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/datatypes"

	"github.com/bull/casereport/internal/auth"
	"github.com/bull/casereport/internal/embedding"
	"github.com/bull/casereport/internal/generation"
	"github.com/bull/casereport/internal/metrics"
	"github.com/bull/casereport/internal/objstore"
	"github.com/bull/casereport/internal/rag"
	"github.com/bull/casereport/internal/store"
)

// Store is the persistence surface the handlers need.
type Store interface {
	CreateCase(ctx context.Context, userID uuid.UUID, name string) (*store.Case, error)
	ListCases(ctx context.Context, userID uuid.UUID) ([]store.Case, error)
	GetCase(ctx context.Context, id, userID uuid.UUID) (*store.Case, error)
	UpdateCase(ctx context.Context, id, userID uuid.UUID, name string) (*store.Case, error)
	DeleteCase(ctx context.Context, id, userID uuid.UUID) error

	CreateDocument(ctx context.Context, caseID uuid.UUID, fileName, filePath, fileType string) (*store.Document, error)
	GetCaseDocument(ctx context.Context, caseID, id uuid.UUID) (*store.Document, error)
	UpdateDocument(ctx context.Context, caseID, id uuid.UUID, fileName string) (*store.Document, error)
	ListDocuments(ctx context.Context, caseID uuid.UUID) ([]store.Document, error)
	DeleteDocument(ctx context.Context, caseID, id uuid.UUID) error

	ListReports(ctx context.Context, caseID uuid.UUID) ([]store.GeneratedReport, error)
	GetReport(ctx context.Context, caseID, id uuid.UUID) (*store.GeneratedReport, error)
	CreateTemplate(ctx context.Context, name string, schema datatypes.JSON) (*store.ReportTemplate, error)
	ListTemplates(ctx context.Context) ([]store.ReportTemplate, error)
}

// RAG is the request-path retrieval and generation surface.
type RAG interface {
	Search(ctx context.Context, caseID uuid.UUID, query string, limit int) ([]store.SearchResult, error)
	Generate(ctx context.Context, caseID uuid.UUID, prompt string, templateID *uuid.UUID) (*store.GeneratedReport, error)
}

// Blobs is the object storage surface used for uploads and deletes.
type Blobs interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) error
	Remove(ctx context.Context, path string) error
}

// Queue hands uploaded documents to the ingestion workers.
type Queue interface {
	Enqueue(ctx context.Context, documentID uuid.UUID) error
}

// Handler wires HTTP routes to the core components.
type Handler struct {
	store    Store
	rag      RAG
	blobs    Blobs
	queue    Queue
	verifier auth.Verifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewHandler constructs a Handler. metrics may be nil; a nil logger falls
// back to slog.Default().
func NewHandler(s Store, r RAG, blobs Blobs, queue Queue, verifier auth.Verifier, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    s,
		rag:      r,
		blobs:    blobs,
		queue:    queue,
		verifier: verifier,
		metrics:  m,
		logger:   logger,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(auth.Middleware(h.verifier))

	api.POST("/cases", h.createCase)
	api.GET("/cases", h.listCases)
	api.GET("/cases/:case_id", h.getCase)
	api.PUT("/cases/:case_id", h.updateCase)
	api.DELETE("/cases/:case_id", h.deleteCase)

	api.POST("/cases/:case_id/documents", h.uploadDocument)
	api.GET("/cases/:case_id/documents", h.listDocuments)
	api.GET("/cases/:case_id/documents/:document_id", h.getDocument)
	api.PUT("/cases/:case_id/documents/:document_id", h.updateDocument)
	api.DELETE("/cases/:case_id/documents/:document_id", h.deleteDocument)
	api.POST("/cases/:case_id/documents/:document_id/reprocess", h.reprocessDocument)

	api.POST("/cases/:case_id/search", h.search)

	api.POST("/cases/:case_id/reports", h.generateReport)
	api.GET("/cases/:case_id/reports", h.listReports)
	api.GET("/cases/:case_id/reports/:report_id", h.getReport)

	api.POST("/templates", h.createTemplate)
	api.GET("/templates", h.listTemplates)
}

// caseForRequest resolves the :case_id route param against the authenticated
// user. Every case-scoped route goes through here, so a case that is missing
// or owned by someone else uniformly reads as 404.
func (h *Handler) caseForRequest(c *gin.Context) (*store.Case, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return nil, false
	}
	caseID, err := uuid.Parse(c.Param("case_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid case id"})
		return nil, false
	}
	kase, err := h.store.GetCase(c.Request.Context(), caseID, userID)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return kase, true
}

func pathUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps the core error taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, rag.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "report template not found"})
	case errors.Is(err, store.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
	case errors.Is(err, embedding.ErrEmbeddingFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "embedding service failed"})
	case errors.Is(err, generation.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation service failed"})
	case errors.Is(err, objstore.ErrStorageUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
	default:
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
