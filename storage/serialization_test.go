package storage

import (
	"testing"
	"time"

	"github.com/poiesic/quanta/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalUnit(t *testing.T) {
	tests := []struct {
		name string
		unit *core.RetrievalUnit
	}{
		{
			name: "full unit",
			unit: &core.RetrievalUnit{
				Id:         "chunk_doc1_1_0",
				DocumentId: "doc1",
				Text:       "The quick brown fox",
				Location:   core.Location{Page: 3, Kind: "text", Section: "0_1"},
				Headings:   []string{"# Introduction"},
				TokenCount: 4,
				Vector:     []float32{0.25, -0.5, 0.75},
			},
		},
		{
			name: "unit without vector",
			unit: &core.RetrievalUnit{
				Id:         "chunk_doc2_1_4",
				DocumentId: "doc2",
				Text:       "body",
				Location:   core.Location{Page: 1, Kind: "text", Section: "4"},
				Headings:   []string{},
				TokenCount: 1,
			},
		},
		{
			name: "unit with unicode text",
			unit: &core.RetrievalUnit{
				Id:         "chunk_doc3_1_0",
				DocumentId: "doc3",
				Text:       "café — résumé 日本語",
				Location:   core.Location{Page: 1, Kind: "text", Section: "0"},
				Headings:   []string{},
				TokenCount: 7,
				Vector:     []float32{1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalUnit(tt.unit)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalUnit(data)
			require.NoError(t, err)
			assert.Equal(t, tt.unit.Id, decoded.Id)
			assert.Equal(t, tt.unit.DocumentId, decoded.DocumentId)
			assert.Equal(t, tt.unit.Text, decoded.Text)
			assert.Equal(t, tt.unit.Location, decoded.Location)
			assert.Equal(t, tt.unit.TokenCount, decoded.TokenCount)
			assert.Equal(t, tt.unit.Vector, decoded.Vector)
		})
	}
}

func TestUnmarshalUnit_Invalid(t *testing.T) {
	_, err := UnmarshalUnit([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalCollectionMeta(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	meta := &core.CollectionMeta{Name: "bot_7", Dim: 384, CreatedAt: now}
	decoded, err := UnmarshalCollectionMeta(MarshalCollectionMeta(meta))
	require.NoError(t, err)
	assert.Equal(t, meta.Name, decoded.Name)
	assert.Equal(t, meta.Dim, decoded.Dim)
	assert.True(t, meta.CreatedAt.Equal(decoded.CreatedAt))
}

func TestMarshalUnmarshalTask(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("pending task keeps zero timestamps", func(t *testing.T) {
		task := &core.Task{
			Id:        "task-1",
			Type:      "document",
			Status:    core.TaskPending,
			CreatedAt: now,
		}

		decoded, err := UnmarshalTask(MarshalTask(task))
		require.NoError(t, err)
		assert.Equal(t, core.TaskPending, decoded.Status)
		assert.True(t, decoded.StartedAt.IsZero())
		assert.True(t, decoded.CompletedAt.IsZero())
	})

	t.Run("failed task preserves error verbatim", func(t *testing.T) {
		task := &core.Task{
			Id:          "task-2",
			Type:        "url",
			Status:      core.TaskFailed,
			CreatedAt:   now,
			StartedAt:   now.Add(time.Second),
			CompletedAt: now.Add(2 * time.Second),
			Error:       "embedder: connection refused",
		}

		decoded, err := UnmarshalTask(MarshalTask(task))
		require.NoError(t, err)
		assert.Equal(t, core.TaskFailed, decoded.Status)
		assert.Equal(t, task.Error, decoded.Error)
		assert.True(t, task.StartedAt.Equal(decoded.StartedAt))
		assert.True(t, task.CompletedAt.Equal(decoded.CompletedAt))
	})
}
