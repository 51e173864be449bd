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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/quanta/ai"
	"github.com/poiesic/quanta/chunker"
	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/index"
)

// Document is the input to an ingestion run. Either Text or Pages must be
// set; when both are present Pages wins. An empty Id is derived from the
// content hash, which makes re-ingesting identical content idempotent at
// the search level: duplicate chunks collapse onto the same document id.
type Document struct {
	Id         string
	Collection string
	Text       string
	Pages      []chunker.Page
}

// Result summarizes a completed ingestion.
type Result struct {
	DocumentId string
	Collection string
	Units      int
	Degraded   bool
}

// Pipeline turns documents into indexed retrieval units: chunk, embed,
// then add to the target collection.
type Pipeline struct {
	registry       *index.Registry
	chunks         *chunker.Chunker
	embedder       ai.Embedder
	requestTimeout time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithRequestTimeout bounds each embedding batch call.
// Default is 30 seconds.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		p.requestTimeout = timeout
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	registry *index.Registry,
	chunks *chunker.Chunker,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if chunks == nil {
		return nil, ErrChunkerRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		registry:       registry,
		chunks:         chunks,
		embedder:       provider.Embedder(),
		requestTimeout: 30 * time.Second,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Ingest chunks, embeds and indexes one document. The collection is created
// on first use with the embedder's dimension. Cancellation is observed
// between the chunking, embedding and indexing stages.
func (p *Pipeline) Ingest(ctx context.Context, doc *Document) (*Result, error) {
	if doc == nil || doc.Collection == "" {
		return nil, ErrCollectionRequired
	}
	if doc.Text == "" && len(doc.Pages) == 0 {
		return nil, ErrEmptyDocument
	}

	docID := doc.Id
	if docID == "" {
		docID = core.DocumentIDFromContent([]byte(documentContent(doc)))
	}

	chunked := p.chunks.Chunk(docID, doc.Text, doc.Pages)
	if chunked.Degraded {
		p.logger.Warn("chunking degraded to fixed-size fallback",
			"document", docID, "cause", chunked.Cause)
	}
	if len(chunked.Units) == 0 {
		return &Result{DocumentId: docID, Collection: doc.Collection}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := p.embed(ctx, chunked.Units); err != nil {
		return nil, fmt.Errorf("embedding document %s: %w", docID, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	col, err := p.registry.Create(ctx, doc.Collection, p.embedder.Dimension())
	if err != nil {
		return nil, err
	}
	if err := col.Add(ctx, chunked.Units...); err != nil {
		return nil, fmt.Errorf("indexing document %s: %w", docID, err)
	}

	p.logger.Info("document ingested",
		"document", docID, "collection", doc.Collection,
		"units", len(chunked.Units), "degraded", chunked.Degraded)

	return &Result{
		DocumentId: docID,
		Collection: doc.Collection,
		Units:      len(chunked.Units),
		Degraded:   chunked.Degraded,
	}, nil
}

// embed fills in the vectors for a batch of units.
func (p *Pipeline) embed(ctx context.Context, units []*core.RetrievalUnit) error {
	texts := make([]string, len(units))
	for i, unit := range units {
		texts[i] = unit.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	vectors, err := p.embedder.EmbedTexts(embedCtx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(units) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d",
			len(units), len(vectors))
	}

	for i, unit := range units {
		unit.Vector = vectors[i]
	}
	return nil
}

// documentContent renders the raw content a document id is derived from.
func documentContent(doc *Document) string {
	if len(doc.Pages) == 0 {
		return doc.Text
	}
	parts := make([]string, len(doc.Pages))
	for i, page := range doc.Pages {
		parts[i] = page.Text
	}
	return strings.Join(parts, "\n")
}
