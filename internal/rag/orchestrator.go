// Package rag answers search and report-generation requests by retrieving
// the most relevant chunks of a case and, for reports, feeding them to the
// completion model.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bull/casereport/internal/generation"
	"github.com/bull/casereport/internal/store"
)

// TopK is the number of chunks retrieved as context for one generation
// request.
const TopK = 10

// systemInstruction frames every generation request.
const systemInstruction = "You are a helpful assistant that generates report sections based on provided context."

// ErrTemplateNotFound is returned when a requested report template does not
// exist.
var ErrTemplateNotFound = errors.New("report template not found")

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GetTemplate(ctx context.Context, id uuid.UUID) (*store.ReportTemplate, error)
	SearchChunks(ctx context.Context, caseID uuid.UUID, query []float32, limit int) ([]store.SearchResult, error)
	CreateReport(ctx context.Context, r *store.GeneratedReport) error
}

// Embedder turns text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer invokes the generative model.
type Completer interface {
	Complete(ctx context.Context, messages []generation.Message) (string, error)
}

// Orchestrator runs on the synchronous request path: the caller blocks until
// retrieval and, for reports, the completion call return. All dependencies
// are injected and shared safely across concurrent requests.
type Orchestrator struct {
	store     Store
	embedder  Embedder
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// NewOrchestrator wires the orchestrator. timeout bounds each external call
// (embedding, completion); zero means no bound. A nil logger falls back to
// slog.Default().
func NewOrchestrator(s Store, e Embedder, c Completer, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		store:     s,
		embedder:  e,
		completer: c,
		timeout:   timeout,
		logger:    logger,
	}
}

// Search embeds the query and returns the nearest chunks of the case. A case
// with no embedded chunks yields an empty result, not an error.
func (o *Orchestrator) Search(ctx context.Context, caseID uuid.UUID, query string, limit int) ([]store.SearchResult, error) {
	vec, err := o.embedWithTimeout(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := o.store.SearchChunks(ctx, caseID, vec, limit)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("Vector search complete", "case_id", caseID, "results", len(results))
	return results, nil
}

// Generate produces and persists one report for the case. Template lookup,
// prompt embedding, and the completion call each abort the whole request on
// failure; nothing is persisted unless generation succeeds. Two identical
// calls create two reports — the model may answer differently each time and
// no dedup is attempted.
func (o *Orchestrator) Generate(ctx context.Context, caseID uuid.UUID, prompt string, templateID *uuid.UUID) (*store.GeneratedReport, error) {
	if templateID != nil {
		if _, err := o.store.GetTemplate(ctx, *templateID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, *templateID)
			}
			return nil, fmt.Errorf("resolve template: %w", err)
		}
	}

	vec, err := o.embedWithTimeout(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("embed prompt: %w", err)
	}

	results, err := o.store.SearchChunks(ctx, caseID, vec, TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	messages := buildMessages(results, prompt)

	genCtx, cancel := o.callContext(ctx)
	text, err := o.completer.Complete(genCtx, messages)
	cancel()
	if err != nil {
		return nil, err
	}

	report := &store.GeneratedReport{
		ID:               uuid.New(),
		CaseID:           caseID,
		TemplateID:       templateID,
		GeneratedAt:      time.Now().UTC(),
		GenerationStatus: store.ReportStatusCompleted,
		Prompt:           prompt,
		GeneratedText:    text,
		UsedChunksCount:  len(results),
	}
	if err := o.store.CreateReport(ctx, report); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}

	o.logger.Info("Report generated",
		"case_id", caseID,
		"report_id", report.ID,
		"used_chunks", report.UsedChunksCount,
	)
	return report, nil
}

// buildMessages composes the fixed generation prompt: system instruction,
// then the retrieved chunk texts in retrieval order separated by blank
// lines, then the user's request.
func buildMessages(results []store.SearchResult, prompt string) []generation.Message {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Content
	}
	context := strings.Join(texts, "\n\n")

	user := fmt.Sprintf(`Based on the following document excerpts (context) and the user's request (prompt), generate a draft report section.

Context:
%s

User Request:
%s

Generated Report Section:
`, context, prompt)

	return []generation.Message{
		{Role: "system", Content: systemInstruction},
		{Role: "user", Content: user},
	}
}

func (o *Orchestrator) embedWithTimeout(ctx context.Context, text string) ([]float32, error) {
	embedCtx, cancel := o.callContext(ctx)
	defer cancel()
	return o.embedder.Embed(embedCtx, text)
}

func (o *Orchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.timeout)
}
