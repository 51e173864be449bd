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


package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/storage"
)

// Collection is a named set of retrieval units searchable by vector
// similarity. Vectors are L2-normalized on add, so cosine similarity
// reduces to a dot product at query time. Mutations are serialized;
// searches run concurrently and never observe a partially added batch.
type Collection struct {
	name      string
	dim       int
	store     storage.CollectionStore
	secondary Secondary
	logger    *slog.Logger

	mu    sync.RWMutex
	units []*core.RetrievalUnit
}

// SearchOption configures a single search call.
type SearchOption func(*searchParams)

type searchParams struct {
	documents map[string]bool
}

// WithDocuments restricts a search to hits from the given document ids.
func WithDocuments(ids ...string) SearchOption {
	return func(p *searchParams) {
		if p.documents == nil {
			p.documents = make(map[string]bool, len(ids))
		}
		for _, id := range ids {
			p.documents[id] = true
		}
	}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Dim returns the embedding dimensionality fixed at creation.
func (c *Collection) Dim() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dim
}

// Count returns the number of indexed units.
func (c *Collection) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}

// Info returns a point-in-time summary of the collection.
func (c *Collection) Info() *core.CollectionInfo {
	return &core.CollectionInfo{
		Name:   c.name,
		Count:  c.Count(),
		Status: "ready",
	}
}

// Add validates, normalizes and indexes a batch of units. The whole batch
// is persisted before Add returns; on any validation failure the batch is
// rejected and the collection is unchanged. The rejected unit is named in
// the returned error.
func (c *Collection) Add(ctx context.Context, units ...*core.RetrievalUnit) error {
	if len(units) == 0 {
		return nil
	}

	// Validate the whole batch before touching anything.
	for _, unit := range units {
		if err := core.ValidateIndexableUnit(unit, c.dim); err != nil {
			return err
		}
	}

	normalized := make([]*core.RetrievalUnit, len(units))
	for i, unit := range units {
		clone := *unit
		clone.Vector = Normalize(unit.Vector)
		normalized[i] = &clone
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.AppendUnits(ctx, c.name, normalized...); err != nil {
		return fmt.Errorf("persisting units: %w", err)
	}
	c.units = append(c.units, normalized...)

	if c.secondary != nil {
		if err := c.secondary.Upsert(ctx, c.name, normalized); err != nil {
			c.logger.Warn("secondary index upsert failed",
				"collection", c.name, "units", len(normalized), "err", err)
		}
	}

	return nil
}

// Search returns up to topK hits ranked by descending cosine similarity,
// at most one hit per source document. When the local collection cannot
// fill topK and a secondary index is configured, its hits are merged in;
// secondary failures only degrade the result, never fail the search.
func (c *Collection) Search(ctx context.Context, vector []float32, topK int, opts ...SearchOption) ([]*core.SearchHit, error) {
	if topK <= 0 {
		return nil, ErrInvalidTopK
	}
	if len(vector) != c.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, collection expects %d",
			core.ErrDimensionMismatch, len(vector), c.dim)
	}

	var params searchParams
	for _, opt := range opts {
		opt(&params)
	}

	query := Normalize(vector)

	c.mu.RLock()
	scored := make([]*core.SearchHit, 0, len(c.units))
	for _, unit := range c.units {
		if params.documents != nil && !params.documents[unit.DocumentId] {
			continue
		}
		scored = append(scored, &core.SearchHit{
			UnitId:     unit.Id,
			Score:      Dot(query, unit.Vector),
			Text:       unit.Text,
			DocumentId: unit.DocumentId,
			Location:   unit.Location,
			Headings:   unit.Headings,
		})
	}
	c.mu.RUnlock()

	sortHits(scored)
	// Oversample so that deduplication by document still has enough
	// candidates to fill topK.
	if len(scored) > 2*topK {
		scored = scored[:2*topK]
	}

	hits := dedupByDocument(scored, topK)

	if len(hits) < topK && c.secondary != nil {
		remote, err := c.secondary.Search(ctx, c.name, query, 2*topK)
		if err != nil {
			c.logger.Warn("secondary index search failed", "collection", c.name, "err", err)
			return hits, nil
		}
		hits = mergeHits(hits, remote, params.documents, topK)
	}

	return hits, nil
}

// sortHits orders hits by descending score, breaking ties by unit id so
// results are deterministic.
func sortHits(hits []*core.SearchHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].UnitId < hits[j].UnitId
	})
}

// dedupByDocument keeps the highest-scoring hit per document, preserving
// order, up to limit hits. Input must already be sorted.
func dedupByDocument(hits []*core.SearchHit, limit int) []*core.SearchHit {
	seen := make(map[string]bool, len(hits))
	result := make([]*core.SearchHit, 0, limit)
	for _, hit := range hits {
		if seen[hit.DocumentId] {
			continue
		}
		seen[hit.DocumentId] = true
		result = append(result, hit)
		if len(result) == limit {
			break
		}
	}
	return result
}

// mergeHits folds remote hits into local ones, dropping duplicate unit ids
// and re-applying the document filter, dedup and limit.
func mergeHits(local, remote []*core.SearchHit, documents map[string]bool, limit int) []*core.SearchHit {
	byUnit := make(map[string]bool, len(local))
	for _, hit := range local {
		byUnit[hit.UnitId] = true
	}

	merged := make([]*core.SearchHit, 0, len(local)+len(remote))
	merged = append(merged, local...)
	for _, hit := range remote {
		if byUnit[hit.UnitId] {
			continue
		}
		if documents != nil && !documents[hit.DocumentId] {
			continue
		}
		byUnit[hit.UnitId] = true
		merged = append(merged, hit)
	}

	sortHits(merged)
	return dedupByDocument(merged, limit)
}
