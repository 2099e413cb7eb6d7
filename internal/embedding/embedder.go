// Package embedding converts text into fixed-dimension vectors using
// OpenAI's text-embedding-3-small model.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// Model is the OpenAI model used for generating embeddings.
	Model = "text-embedding-3-small"

	// Dimension is the vector dimension for text-embedding-3-small.
	// This matches store.VectorDimension (1536).
	Dimension = 1536
)

// ErrEmbeddingFailed is returned when the embedding service errors or
// responds with anything other than one well-formed vector per input. A
// non-conforming response is never interpreted as partial success.
var ErrEmbeddingFailed = errors.New("embedding failed")

// Embedder generates embeddings one text at a time. Calls are independent and
// idempotent; the Embedder never retries a failed call beyond transparent
// rate-limit backoff, so retry policy stays with the caller.
type Embedder struct {
	client *Client
}

// NewEmbedder creates an Embedder backed by the given client.
func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

// Embed returns the vector for a single text. Rate-limit errors (HTTP 429)
// are retried with exponential backoff; any other failure is permanent and
// surfaces as ErrEmbeddingFailed.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32

	operation := func() error {
		resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: []string{text},
			},
			Model: Model,
		})
		if err != nil {
			if isRateLimitError(err) {
				return err // Will retry with backoff
			}
			return backoff.Permanent(err)
		}

		if len(resp.Data) != 1 {
			return backoff.Permanent(
				fmt.Errorf("expected 1 embedding in response, got %d", len(resp.Data)))
		}
		vec := toFloat32(resp.Data[0].Embedding)
		if len(vec) != Dimension {
			return backoff.Permanent(
				fmt.Errorf("expected %d dimensions, got %d", Dimension, len(vec)))
		}
		result = vec
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	return result, nil
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
