package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Run("base URL required", func(t *testing.T) {
		_, err := NewClient("")
		assert.Equal(t, ErrBaseURLRequired, err)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c, err := NewClient("http://localhost:6333/")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:6333", c.baseURL)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		_, err := NewClient("http://localhost:6333", WithTimeout(0))
		assert.Equal(t, ErrInvalidTimeout, err)
	})
}

func TestEnsureCollection(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	require.NoError(t, c.EnsureCollection(context.Background(), "docs", 384))
	assert.Equal(t, "PUT /collections/docs", gotPath)

	vectors := gotBody["vectors"].(map[string]any)
	assert.Equal(t, float64(384), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	assert.ErrorIs(t, c.EnsureCollection(context.Background(), "docs", 0), index.ErrInvalidDimension)
}

func TestUpsertSendsPayload(t *testing.T) {
	var gotBody struct {
		Points []struct {
			Id      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "/collections/docs/points", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	unit := &core.RetrievalUnit{
		Id:         "chunk_doc_0",
		DocumentId: "doc_a",
		Text:       "hello",
		Location:   core.Location{Page: 2, Kind: "text", Section: "Intro"},
		Headings:   []string{"Intro"},
		Vector:     []float32{1, 0},
	}
	require.NoError(t, c.Upsert(context.Background(), "docs", []*core.RetrievalUnit{unit}))

	require.Len(t, gotBody.Points, 1)
	point := gotBody.Points[0]
	// Point ids are deterministic UUIDs derived from the unit id.
	assert.Equal(t, pointID("chunk_doc_0"), point.Id)
	assert.Equal(t, "chunk_doc_0", point.Payload["unit_id"])
	assert.Equal(t, "doc_a", point.Payload["document_id"])
	assert.Equal(t, float64(2), point.Payload["page"])
}

func TestSearchParsesHits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/collections/docs/points/search", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.93,
					"payload": map[string]any{
						"unit_id":     "chunk_doc_0",
						"document_id": "doc_a",
						"text":        "hello",
						"page":        3,
						"kind":        "text",
						"section":     "Intro",
						"headings":    []string{"Intro"},
					},
				},
			},
		})
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	hits, err := c.Search(context.Background(), "docs", []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	hit := hits[0]
	assert.Equal(t, "chunk_doc_0", hit.UnitId)
	assert.Equal(t, "doc_a", hit.DocumentId)
	assert.InDelta(t, 0.93, hit.Score, 1e-6)
	assert.Equal(t, 3, hit.Location.Page)
	assert.Equal(t, []string{"Intro"}, hit.Headings)
}

func TestErrorStatusSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	_, err = c.Search(context.Background(), "docs", []float32{1, 0}, 5)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestDeleteCollectionIgnoresNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, err := NewClient(server.URL)
	require.NoError(t, err)
	assert.NoError(t, c.DeleteCollection(context.Background(), "missing"))
}

func TestAPIKeyHeader(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c, err := NewClient(server.URL, WithAPIKey("secret"))
	require.NoError(t, err)
	require.NoError(t, c.EnsureCollection(context.Background(), "docs", 4))
	assert.Equal(t, "secret", gotKey)
}
