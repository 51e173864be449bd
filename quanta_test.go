package quanta

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/quanta/ai/mock"
	"github.com/poiesic/quanta/ingestion"
	"github.com/poiesic/quanta/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestService skips when the cl100k_base encoding is unavailable, since
// tiktoken fetches it on first use.
func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()

	if _, err := tokenizer.NewCL100K(); err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}

	opts = append([]ServiceOption{WithInMemory(), WithProvider(mock.NewMockProvider())}, opts...)
	service, err := NewService("", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { service.Close() })
	return service
}

func TestNewService(t *testing.T) {
	service := newTestService(t)
	assert.NotNil(t, service.Registry())
	assert.NotNil(t, service.Executor())
}

func TestIngestAndSearch(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	result, err := service.Ingest(ctx, &ingestion.Document{
		Collection: "docs",
		Text:       "# Geography\n\nParis is the capital of France.",
	})
	require.NoError(t, err)
	require.Greater(t, result.Units, 0)

	hits, err := service.Search(ctx, "docs", "capital of France", 0)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, result.DocumentId, hits[0].DocumentId)
}

func TestAskReturnsAnswerWithSources(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, &ingestion.Document{
		Collection: "docs",
		Text:       "Paris is the capital of France.",
	})
	require.NoError(t, err)

	answer, err := service.Ask(ctx, "docs", "What is the capital?", nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, answer.Text)
	// The mock generator cites [1], which resolves to the ingested unit.
	require.NotEmpty(t, answer.Citations)
	assert.NotEmpty(t, answer.Sources)
}

func TestCollectionsLifecycle(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Ingest(ctx, &ingestion.Document{Collection: "docs", Text: "content"})
	require.NoError(t, err)

	infos, err := service.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "docs", infos[0].Name)

	require.NoError(t, service.DeleteCollection(ctx, "docs"))
	infos, err = service.Collections(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestIngestAsyncTracksTask(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	id, err := service.IngestAsync(ctx, &ingestion.Document{Collection: "docs", Text: "content"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		task, err := service.TaskStatus(ctx, id)
		return err == nil && task.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)

	task, err := service.TaskStatus(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, task.Result, "units indexed")

	tasks, err := service.Tasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestReindex(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	result, err := service.Ingest(ctx, &ingestion.Document{Collection: "docs", Text: "content"})
	require.NoError(t, err)

	count, err := service.Reindex(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, result.Units, count)
}
