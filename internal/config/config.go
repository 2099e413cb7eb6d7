// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds runtime configuration for both the API server and the
// ingestion worker. Values come from environment variables; a .env file is
// loaded by the entrypoints before this runs.
type Config struct {
	// ServerAddr is the listen address for the HTTP API.
	ServerAddr string

	// DatabaseURL is the Postgres DSN. The database must have the pgvector
	// extension available.
	DatabaseURL string

	// RedisURL is the address of the redis instance backing the ingestion queue.
	RedisURL string

	// AuthURL is the identity provider endpoint used to resolve bearer tokens.
	AuthURL string

	// Object storage (S3-compatible) settings for raw document files.
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageUseSSL    bool

	// OpenAIAPIKey authenticates embedding requests.
	OpenAIAPIKey string

	// Generation service settings. The completion API is OpenAI-compatible;
	// GenerationBaseURL defaults to OpenRouter.
	GenerationAPIKey  string
	GenerationBaseURL string
	GenerationModel   string

	// MetricsAddr is the listen address for the worker's metrics endpoint.
	// The API server exposes /metrics on ServerAddr instead.
	MetricsAddr string

	// WorkerCount is the number of concurrent ingestion consumers.
	WorkerCount int

	// RequestTimeout bounds the embedding and completion calls on the
	// synchronous request path.
	RequestTimeout time.Duration
}

// Load reads configuration from the environment and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddr:        getEnv("SERVER_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AuthURL:           os.Getenv("AUTH_URL"),
		StorageEndpoint:   getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey:  os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey:  os.Getenv("STORAGE_SECRET_KEY"),
		StorageBucket:     getEnv("STORAGE_BUCKET", "documents"),
		StorageUseSSL:     getEnvBool("STORAGE_USE_SSL", false),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		GenerationAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		GenerationBaseURL: getEnv("GENERATION_BASE_URL", "https://openrouter.ai/api/v1"),
		GenerationModel:   getEnv("GENERATION_MODEL", "openrouter/auto"),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9091"),
		WorkerCount:       getEnvInt("WORKER_COUNT", 4),
		RequestTimeout:    getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
