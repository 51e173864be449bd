// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/index"
)

// Client is a minimal REST client for Qdrant implementing index.Secondary.
// Collections are created with cosine distance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ index.Secondary = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithAPIKey sets the api-key header sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) error {
		c.apiKey = key
		return nil
	}
}

// WithTimeout sets the per-request timeout.
// Default is 15 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return ErrInvalidTimeout
		}
		c.httpClient.Timeout = timeout
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return ErrHTTPClientRequired
		}
		c.httpClient = client
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a client for the Qdrant REST API at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// EnsureCollection creates the collection if it does not exist. Qdrant
// answers 200 for an existing collection with the same schema.
func (c *Client) EnsureCollection(ctx context.Context, name string, dim int) error {
	if dim <= 0 {
		return index.ErrInvalidDimension
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	return c.putJSON(ctx, fmt.Sprintf("%s/collections/%s", c.baseURL, name), body, nil)
}

// Upsert writes units into the collection. Qdrant point ids must be UUIDs,
// so each unit id is mapped to a deterministic UUID and the original id is
// kept in the payload.
func (c *Client) Upsert(ctx context.Context, collection string, units []*core.RetrievalUnit) error {
	if len(units) == 0 {
		return nil
	}

	points := make([]map[string]any, len(units))
	for i, unit := range units {
		points[i] = map[string]any{
			"id":     pointID(unit.Id),
			"vector": unit.Vector,
			"payload": map[string]any{
				"unit_id":     unit.Id,
				"document_id": unit.DocumentId,
				"text":        unit.Text,
				"page":        unit.Location.Page,
				"kind":        unit.Location.Kind,
				"section":     unit.Location.Section,
				"headings":    unit.Headings,
			},
		}
	}

	body := map[string]any{"points": points}
	return c.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, collection), body, nil)
}

// Search returns up to limit hits from the collection.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, limit int) ([]*core.SearchHit, error) {
	if limit <= 0 {
		return nil, index.ErrInvalidTopK
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var resp struct {
		Result []struct {
			Score   float32        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, collection)
	if err := c.postJSON(ctx, url, body, &resp); err != nil {
		return nil, err
	}

	hits := make([]*core.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := &core.SearchHit{Score: r.Score}
		if v, ok := r.Payload["unit_id"].(string); ok {
			hit.UnitId = v
		}
		if v, ok := r.Payload["document_id"].(string); ok {
			hit.DocumentId = v
		}
		if v, ok := r.Payload["text"].(string); ok {
			hit.Text = v
		}
		if v, ok := r.Payload["page"].(float64); ok {
			hit.Location.Page = int(v)
		}
		if v, ok := r.Payload["kind"].(string); ok {
			hit.Location.Kind = v
		}
		if v, ok := r.Payload["section"].(string); ok {
			hit.Location.Section = v
		}
		if v, ok := r.Payload["headings"].([]any); ok {
			for _, h := range v {
				if s, ok := h.(string); ok {
					hit.Headings = append(hit.Headings, s)
				}
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DeleteCollection drops the collection. A missing collection is not an error.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/collections/%s", c.baseURL, name), nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: DELETE %s: %s", ErrRequestFailed, req.URL, resp.Status)
	}
	return nil
}

// pointID maps an arbitrary unit id to a deterministic UUID.
func pointID(unitID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(unitID)).String()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
}

func (c *Client) putJSON(ctx context.Context, url string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, url, body, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, url, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s: %s", ErrRequestFailed, method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
