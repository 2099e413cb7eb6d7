// Package main provides the ingestion worker for the case report service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bull/casereport/internal/config"
	"github.com/bull/casereport/internal/embedding"
	"github.com/bull/casereport/internal/ingest"
	"github.com/bull/casereport/internal/metrics"
	"github.com/bull/casereport/internal/objstore"
	"github.com/bull/casereport/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "casereport-worker",
	Short: "Case report ingestion worker",
	Long: `Consumes the ingestion queue and processes uploaded documents:
download from object storage, extract text, chunk, embed, and persist.

This command:
1. Connects to Postgres, redis, and object storage
2. Pops document ids from the ingestion queue
3. Runs the ingestion pipeline once per document
4. Records each document's terminal status for pollers

Environment variables match casereport-server; WORKER_COUNT sets the number
of concurrent consumers (default: 4) and METRICS_ADDR the Prometheus
listen address (default: :9091).`,
	RunE: runWorker,
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	blobs, err := objstore.New(context.Background(), objstore.Config{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		return fmt.Errorf("connect object storage: %w", err)
	}

	queue, err := ingest.NewQueue(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect queue: %w", err)
	}
	defer queue.Close()

	embeddingClient, err := embedding.NewClient(cfg.OpenAIAPIKey)
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(embeddingClient)

	pipeline := ingest.NewPipeline(db, blobs, embedder, metrics.New(), logger)
	worker := ingest.NewWorker(queue, pipeline, cfg.WorkerCount, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The worker has no API surface, so the ingestion counters get their own
	// listener for the scraper.
	metricsSrv := metricsServer(cfg.MetricsAddr)
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener failed", "addr", cfg.MetricsAddr, "error", err)
		}
	}()

	logger.Info("Worker started", "consumers", cfg.WorkerCount, "metrics_addr", cfg.MetricsAddr)
	worker.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)

	logger.Info("Worker stopped")
	return nil
}

func metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{Addr: addr, Handler: mux}
}
