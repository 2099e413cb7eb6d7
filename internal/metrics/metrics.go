// Package metrics provides Prometheus metrics for the ingestion pipeline and
// the request path.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A single instance is shared by
// the pipeline and the HTTP layer.
type Metrics struct {
	DocumentsProcessed *prometheus.CounterVec
	ChunksCreated      prometheus.Counter
	ChunksEmbedded     prometheus.Counter
	EmbeddingFailures  prometheus.Counter
	SearchesTotal      prometheus.Counter
	ReportsTotal       *prometheus.CounterVec
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		DocumentsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casereport_documents_processed_total",
				Help: "Ingestion runs by terminal status",
			},
			[]string{"status"},
		),
		ChunksCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "casereport_chunks_created_total",
				Help: "Chunks persisted by the ingestion pipeline",
			},
		),
		ChunksEmbedded: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "casereport_chunks_embedded_total",
				Help: "Chunks that received an embedding",
			},
		),
		EmbeddingFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "casereport_embedding_failures_total",
				Help: "Per-chunk embedding failures during ingestion",
			},
		),
		SearchesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "casereport_searches_total",
				Help: "Vector search requests served",
			},
		),
		ReportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "casereport_reports_total",
				Help: "Report generation requests by outcome",
			},
			[]string{"outcome"},
		),
	}
}
