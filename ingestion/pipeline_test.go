package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/quanta/ai/mock"
	"github.com/poiesic/quanta/chunker"
	"github.com/poiesic/quanta/index"
	"github.com/poiesic/quanta/storage/badger"
	"github.com/poiesic/quanta/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runeCodec treats every rune as one token, which keeps chunking
// deterministic without a real BPE table.
type runeCodec struct{}

func (runeCodec) Encode(text string) []int {
	tokens := make([]int, 0, len(text))
	for _, r := range text {
		tokens = append(tokens, int(r))
	}
	return tokens
}

func (runeCodec) Decode(tokens []int) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteRune(rune(t))
	}
	return b.String()
}

func (runeCodec) Count(text string) int {
	return len([]rune(text))
}

var _ tokenizer.Codec = runeCodec{}

func newTestPipeline(t *testing.T, opts ...Option) (*Pipeline, *index.Registry) {
	t.Helper()

	colRepo, taskRepo, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		colRepo.Close()
		taskRepo.Close()
		backend.Close()
	})

	registry, err := index.NewRegistry(colRepo)
	require.NoError(t, err)

	chunks, err := chunker.New(runeCodec{}, chunker.DefaultConfig())
	require.NoError(t, err)

	pipeline, err := NewPipeline(registry, chunks, mock.NewMockProvider(), opts...)
	require.NoError(t, err)
	return pipeline, registry
}

func TestNewPipelineValidation(t *testing.T) {
	chunks, err := chunker.New(runeCodec{}, chunker.DefaultConfig())
	require.NoError(t, err)

	colRepo, taskRepo, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	registry, err := index.NewRegistry(colRepo)
	require.NoError(t, err)

	t.Run("nil registry", func(t *testing.T) {
		_, err := NewPipeline(nil, chunks, mock.NewMockProvider())
		assert.Equal(t, ErrRegistryRequired, err)
	})

	t.Run("nil chunker", func(t *testing.T) {
		_, err := NewPipeline(registry, nil, mock.NewMockProvider())
		assert.Equal(t, ErrChunkerRequired, err)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := NewPipeline(registry, chunks, nil)
		assert.Equal(t, ErrAIProviderRequired, err)
	})
}

func TestIngestIndexesDocument(t *testing.T) {
	pipeline, registry := newTestPipeline(t)
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, &Document{
		Collection: "docs",
		Text:       "# Setup\n\nInstall the binary.\n\n# Usage\n\nRun it from the shell.",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.DocumentId)
	assert.False(t, result.Degraded)
	assert.Greater(t, result.Units, 0)

	col, err := registry.Get(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, result.Units, col.Count())
	assert.Equal(t, 384, col.Dim())
}

func TestIngestDerivesStableDocumentId(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	first, err := pipeline.Ingest(ctx, &Document{Collection: "docs", Text: "same content"})
	require.NoError(t, err)
	second, err := pipeline.Ingest(ctx, &Document{Collection: "docs", Text: "same content"})
	require.NoError(t, err)

	assert.Equal(t, first.DocumentId, second.DocumentId)
}

func TestIngestPages(t *testing.T) {
	pipeline, registry := newTestPipeline(t)
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, &Document{
		Collection: "docs",
		Pages: []chunker.Page{
			{Number: 1, Text: "First page body."},
			{Number: 2, Text: "Second page body.", Kind: "table"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Units)

	col, err := registry.Get(ctx, "docs")
	require.NoError(t, err)
	hits, err := col.Search(ctx, make([]float32, 384), 10)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
}

func TestIngestValidation(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ctx := context.Background()

	_, err := pipeline.Ingest(ctx, &Document{Text: "content"})
	assert.Equal(t, ErrCollectionRequired, err)

	_, err = pipeline.Ingest(ctx, &Document{Collection: "docs"})
	assert.Equal(t, ErrEmptyDocument, err)
}

func TestIngestEmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service unavailable")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockGenerator())

	colRepo, taskRepo, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	registry, err := index.NewRegistry(colRepo)
	require.NoError(t, err)
	chunks, err := chunker.New(runeCodec{}, chunker.DefaultConfig())
	require.NoError(t, err)
	pipeline, err := NewPipeline(registry, chunks, provider)
	require.NoError(t, err)

	_, err = pipeline.Ingest(context.Background(), &Document{Collection: "docs", Text: "content"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service unavailable")

	// Nothing was indexed.
	_, err = registry.Get(context.Background(), "docs")
	assert.ErrorIs(t, err, index.ErrCollectionNotFound)
}

func TestIngestCancelledContext(t *testing.T) {
	pipeline, _ := newTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Ingest(ctx, &Document{Collection: "docs", Text: "content"})
	assert.ErrorIs(t, err, context.Canceled)
}
