package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/casereport/internal/generation"
	"github.com/bull/casereport/internal/store"
)

type fakeRAGStore struct {
	templates map[uuid.UUID]*store.ReportTemplate
	results   []store.SearchResult
	searchErr error
	reports   []*store.GeneratedReport

	searchedCase  uuid.UUID
	searchedLimit int
}

func (f *fakeRAGStore) GetTemplate(_ context.Context, id uuid.UUID) (*store.ReportTemplate, error) {
	tpl, ok := f.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return tpl, nil
}

func (f *fakeRAGStore) SearchChunks(_ context.Context, caseID uuid.UUID, _ []float32, limit int) ([]store.SearchResult, error) {
	f.searchedCase = caseID
	f.searchedLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeRAGStore) CreateReport(_ context.Context, r *store.GeneratedReport) error {
	f.reports = append(f.reports, r)
	return nil
}

type fakeQueryEmbedder struct {
	err error
}

func (f *fakeQueryEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeCompleter struct {
	text     string
	err      error
	messages []generation.Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []generation.Message) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func TestGenerate_ComposesPromptFromRetrievedChunks(t *testing.T) {
	st := &fakeRAGStore{results: []store.SearchResult{
		{ChunkID: uuid.New(), Content: "The contract was signed on March 3rd."},
		{ChunkID: uuid.New(), Content: "Delivery was due within thirty days."},
	}}
	completer := &fakeCompleter{text: "Draft section."}
	o := NewOrchestrator(st, &fakeQueryEmbedder{}, completer, 0, nil)

	caseID := uuid.New()
	report, err := o.Generate(context.Background(), caseID, "Summarize the contract terms", nil)
	require.NoError(t, err)

	require.Len(t, completer.messages, 2)
	assert.Equal(t, "system", completer.messages[0].Role)
	user := completer.messages[1].Content
	assert.Contains(t, user, "The contract was signed on March 3rd.")
	assert.Contains(t, user, "Delivery was due within thirty days.")
	assert.Contains(t, user, "Summarize the contract terms")

	assert.Equal(t, TopK, st.searchedLimit)
	assert.Equal(t, caseID, st.searchedCase)

	require.Len(t, st.reports, 1)
	assert.Equal(t, report, st.reports[0])
	assert.Equal(t, "Draft section.", report.GeneratedText)
	assert.Equal(t, 2, report.UsedChunksCount)
	assert.Equal(t, store.ReportStatusCompleted, report.GenerationStatus)
}

func TestGenerate_NoEmbeddedChunks(t *testing.T) {
	st := &fakeRAGStore{}
	completer := &fakeCompleter{text: "Nothing to report."}
	o := NewOrchestrator(st, &fakeQueryEmbedder{}, completer, 0, nil)

	report, err := o.Generate(context.Background(), uuid.New(), "Summarize", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.UsedChunksCount)
	// Generation still runs against an empty context.
	assert.Contains(t, completer.messages[1].Content, "Summarize")
}

func TestGenerate_CompletionFailurePersistsNothing(t *testing.T) {
	st := &fakeRAGStore{results: []store.SearchResult{{Content: "chunk"}}}
	completer := &fakeCompleter{err: generation.ErrGenerationFailed}
	o := NewOrchestrator(st, &fakeQueryEmbedder{}, completer, 0, nil)

	_, err := o.Generate(context.Background(), uuid.New(), "Summarize", nil)
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
	assert.Empty(t, st.reports)
}

func TestGenerate_EmbeddingFailureAborts(t *testing.T) {
	st := &fakeRAGStore{}
	o := NewOrchestrator(st, &fakeQueryEmbedder{err: errors.New("model offline")}, &fakeCompleter{}, 0, nil)

	_, err := o.Generate(context.Background(), uuid.New(), "Summarize", nil)
	require.Error(t, err)
	assert.Empty(t, st.reports)
}

func TestGenerate_TemplateNotFound(t *testing.T) {
	st := &fakeRAGStore{templates: map[uuid.UUID]*store.ReportTemplate{}}
	o := NewOrchestrator(st, &fakeQueryEmbedder{}, &fakeCompleter{}, 0, nil)

	missing := uuid.New()
	_, err := o.Generate(context.Background(), uuid.New(), "Summarize", &missing)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	assert.Empty(t, st.reports)
}

func TestGenerate_KnownTemplate(t *testing.T) {
	tplID := uuid.New()
	st := &fakeRAGStore{
		templates: map[uuid.UUID]*store.ReportTemplate{
			tplID: {ID: tplID, Name: "intake-summary"},
		},
	}
	o := NewOrchestrator(st, &fakeQueryEmbedder{}, &fakeCompleter{text: "ok"}, 0, nil)

	report, err := o.Generate(context.Background(), uuid.New(), "Summarize", &tplID)
	require.NoError(t, err)
	require.NotNil(t, report.TemplateID)
	assert.Equal(t, tplID, *report.TemplateID)
}

func TestSearch_ReturnsStoreResults(t *testing.T) {
	want := []store.SearchResult{
		{ChunkID: uuid.New(), Content: "nearest", Distance: 0.1},
		{ChunkID: uuid.New(), Content: "second", Distance: 0.4},
	}
	st := &fakeRAGStore{results: want}
	o := NewOrchestrator(st, &fakeQueryEmbedder{}, &fakeCompleter{}, 0, nil)

	got, err := o.Search(context.Background(), uuid.New(), "query", 5)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 5, st.searchedLimit)
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	o := NewOrchestrator(&fakeRAGStore{}, &fakeQueryEmbedder{err: errors.New("offline")}, &fakeCompleter{}, 0, nil)
	_, err := o.Search(context.Background(), uuid.New(), "query", 5)
	assert.Error(t, err)
}

func TestSearch_InvalidQueryPassesThrough(t *testing.T) {
	st := &fakeRAGStore{searchErr: store.ErrInvalidQuery}
	o := NewOrchestrator(st, &fakeQueryEmbedder{}, &fakeCompleter{}, 0, nil)
	_, err := o.Search(context.Background(), uuid.New(), "query", -1)
	assert.ErrorIs(t, err, store.ErrInvalidQuery)
}
