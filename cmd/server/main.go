// Package main provides the HTTP API server for the case report service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/casereport/internal/api"
	"github.com/bull/casereport/internal/auth"
	"github.com/bull/casereport/internal/config"
	"github.com/bull/casereport/internal/embedding"
	"github.com/bull/casereport/internal/generation"
	"github.com/bull/casereport/internal/ingest"
	"github.com/bull/casereport/internal/metrics"
	"github.com/bull/casereport/internal/objstore"
	"github.com/bull/casereport/internal/rag"
	"github.com/bull/casereport/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "casereport-server",
	Short: "Case report HTTP API",
	Long: `Serves the case report API: case and document management, vector
search over ingested chunks, and RAG report generation.

Environment variables:
  SERVER_ADDR         Listen address (default: :8080)
  DATABASE_URL        Postgres DSN with pgvector available (required)
  REDIS_URL           Redis URL for the ingestion queue
  AUTH_URL            Identity provider user endpoint
  STORAGE_ENDPOINT    S3-compatible object storage endpoint
  STORAGE_ACCESS_KEY  Object storage access key
  STORAGE_SECRET_KEY  Object storage secret key
  STORAGE_BUCKET      Bucket for raw document files (default: documents)
  OPENAI_API_KEY      OpenAI API key for embeddings (required)
  OPENROUTER_API_KEY  Completion API key (required)
  GENERATION_MODEL    Completion model (default: openrouter/auto)`,
	RunE: runServer,
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
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

	completer, err := generation.NewClient(cfg.GenerationAPIKey, cfg.GenerationBaseURL, cfg.GenerationModel)
	if err != nil {
		return fmt.Errorf("create generation client: %w", err)
	}

	m := metrics.New()
	orchestrator := rag.NewOrchestrator(db, embedder, completer, cfg.RequestTimeout, logger)
	verifier := auth.NewHTTPVerifier(cfg.AuthURL)
	handler := api.NewHandler(db, orchestrator, blobs, queue, verifier, m, logger)

	router := gin.Default()
	handler.RegisterRoutes(router)

	logger.Info("Server listening", "addr", cfg.ServerAddr)
	return router.Run(cfg.ServerAddr)
}
