package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/casereport/internal/store"
)

// fakeStore implements Store in memory with the same claim semantics as the
// real one.
type fakeStore struct {
	docs     map[uuid.UUID]*store.Document
	chunks   map[uuid.UUID][]store.Chunk
	embedded map[uuid.UUID][]float32
	getErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     make(map[uuid.UUID]*store.Document),
		chunks:   make(map[uuid.UUID][]store.Chunk),
		embedded: make(map[uuid.UUID][]float32),
	}
}

func (f *fakeStore) addDocument(fileType, path string) *store.Document {
	doc := &store.Document{
		ID:               uuid.New(),
		CaseID:           uuid.New(),
		FileName:         "file." + fileType,
		FilePath:         path,
		FileType:         fileType,
		ProcessingStatus: store.StatusUploaded,
	}
	f.docs[doc.ID] = doc
	return doc
}

func (f *fakeStore) GetDocument(_ context.Context, id uuid.UUID) (*store.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc, nil
}

func (f *fakeStore) ClaimDocument(_ context.Context, id uuid.UUID) error {
	doc, ok := f.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	if doc.ProcessingStatus == store.StatusProcessing {
		return store.ErrAlreadyProcessing
	}
	doc.ProcessingStatus = store.StatusProcessing
	return nil
}

func (f *fakeStore) SaveParsedContent(_ context.Context, id uuid.UUID, content string) error {
	doc, ok := f.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	doc.ParsedContent = &content
	return nil
}

func (f *fakeStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	f.docs[id].ProcessingStatus = store.StatusCompleted
	return nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id uuid.UUID) error {
	f.docs[id].ProcessingStatus = store.StatusFailed
	return nil
}

func (f *fakeStore) ReplaceChunks(_ context.Context, documentID uuid.UUID, texts []string) ([]store.Chunk, error) {
	chunks := make([]store.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = store.Chunk{
			ID:         uuid.New(),
			DocumentID: documentID,
			Position:   i,
			Content:    text,
		}
	}
	f.chunks[documentID] = chunks
	return chunks, nil
}

func (f *fakeStore) SetEmbedding(_ context.Context, chunkID uuid.UUID, embedding []float32) error {
	f.embedded[chunkID] = embedding
	return nil
}

// fakeBlobs serves fixed bytes per path.
type fakeBlobs struct {
	files map[string][]byte
}

func (f *fakeBlobs) Download(_ context.Context, path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("storage unavailable: %s", path)
	}
	return data, nil
}

// fakeEmbedder returns a constant vector, failing for texts in failOn.
type fakeEmbedder struct {
	failOn map[string]bool
	calls  []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.failOn[text] {
		return nil, errors.New("embedding failed")
	}
	return []float32{1, 2, 3}, nil
}

func TestProcess_Success(t *testing.T) {
	st := newFakeStore()
	doc := st.addDocument("txt", "case/file.txt")
	blobs := &fakeBlobs{files: map[string][]byte{
		"case/file.txt": []byte("alpha\n\nbeta\n\ngamma"),
	}}
	embedder := &fakeEmbedder{}

	p := NewPipeline(st, blobs, embedder, nil, nil)
	err := p.Process(context.Background(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusCompleted, doc.ProcessingStatus)
	require.NotNil(t, doc.ParsedContent)
	assert.Equal(t, "alpha\n\nbeta\n\ngamma", *doc.ParsedContent)

	chunks := st.chunks[doc.ID]
	require.Len(t, chunks, 3)
	assert.Equal(t, "alpha", chunks[0].Content)
	assert.Equal(t, "beta", chunks[1].Content)
	assert.Equal(t, "gamma", chunks[2].Content)
	assert.Len(t, st.embedded, 3)
}

func TestProcess_DownloadFailure(t *testing.T) {
	st := newFakeStore()
	doc := st.addDocument("txt", "case/missing.txt")
	blobs := &fakeBlobs{files: map[string][]byte{}}

	p := NewPipeline(st, blobs, &fakeEmbedder{}, nil, nil)
	err := p.Process(context.Background(), doc.ID)
	require.Error(t, err)

	assert.Equal(t, store.StatusFailed, doc.ProcessingStatus)
	assert.Empty(t, st.chunks[doc.ID], "no chunks should be created")
}

func TestProcess_UnsupportedFormat(t *testing.T) {
	st := newFakeStore()
	doc := st.addDocument("pdf", "case/file.pdf")
	blobs := &fakeBlobs{files: map[string][]byte{
		"case/file.pdf": []byte("%PDF-1.7"),
	}}

	p := NewPipeline(st, blobs, &fakeEmbedder{}, nil, nil)
	err := p.Process(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Equal(t, store.StatusFailed, doc.ProcessingStatus)
}

// A single embedding failure skips that chunk only: the run still completes
// and the other chunks keep their embeddings.
func TestProcess_PartialEmbeddingFailure(t *testing.T) {
	st := newFakeStore()
	doc := st.addDocument("txt", "case/file.txt")
	blobs := &fakeBlobs{files: map[string][]byte{
		"case/file.txt": []byte("one\n\ntwo\n\nthree"),
	}}
	embedder := &fakeEmbedder{failOn: map[string]bool{"two": true}}

	p := NewPipeline(st, blobs, embedder, nil, nil)
	err := p.Process(context.Background(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusCompleted, doc.ProcessingStatus)
	require.Len(t, st.chunks[doc.ID], 3)
	assert.Len(t, st.embedded, 2, "failed chunk should stay unembedded")
	assert.Equal(t, []string{"one", "two", "three"}, embedder.calls)
}

func TestProcess_EmptyDocument(t *testing.T) {
	st := newFakeStore()
	doc := st.addDocument("txt", "case/empty.txt")
	blobs := &fakeBlobs{files: map[string][]byte{
		"case/empty.txt": []byte("   \n\n  "),
	}}

	p := NewPipeline(st, blobs, &fakeEmbedder{}, nil, nil)
	err := p.Process(context.Background(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, store.StatusCompleted, doc.ProcessingStatus)
	assert.Empty(t, st.chunks[doc.ID])
}

// A failure between the claim and the actual work must still end in a
// terminal status, or the document could never be claimed again.
func TestProcess_FetchFailureAfterClaimMarksFailed(t *testing.T) {
	st := newFakeStore()
	doc := st.addDocument("txt", "case/file.txt")
	st.getErr = errors.New("connection reset")
	blobs := &fakeBlobs{files: map[string][]byte{
		"case/file.txt": []byte("alpha"),
	}}

	p := NewPipeline(st, blobs, &fakeEmbedder{}, nil, nil)
	err := p.Process(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Equal(t, store.StatusFailed, doc.ProcessingStatus)

	// The document stays claimable once the transient error clears.
	st.getErr = nil
	err = p.Process(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, doc.ProcessingStatus)
}

func TestProcess_DuplicateDelivery(t *testing.T) {
	st := newFakeStore()
	doc := st.addDocument("txt", "case/file.txt")
	doc.ProcessingStatus = store.StatusProcessing

	p := NewPipeline(st, &fakeBlobs{}, &fakeEmbedder{}, nil, nil)
	err := p.Process(context.Background(), doc.ID)
	assert.ErrorIs(t, err, store.ErrAlreadyProcessing)
}

func TestProcess_UnknownDocument(t *testing.T) {
	st := newFakeStore()
	p := NewPipeline(st, &fakeBlobs{}, &fakeEmbedder{}, nil, nil)
	err := p.Process(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
