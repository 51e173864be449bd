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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/storage"
)

// Registry owns the set of named collections. Collections are hydrated
// from the store on first access, so a restarted process sees everything
// that was persisted.
type Registry struct {
	store     storage.CollectionStore
	secondary Secondary
	logger    *slog.Logger

	mu          sync.Mutex
	collections map[string]*Collection
}

// Option configures a Registry.
type Option func(*Registry) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithSecondary attaches a remote secondary index. Adds are mirrored to it
// and searches fall back to it on shortfall.
func WithSecondary(secondary Secondary) Option {
	return func(r *Registry) error {
		r.secondary = secondary
		return nil
	}
}

// NewRegistry creates a new registry over the given store.
func NewRegistry(store storage.CollectionStore, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	r := &Registry{
		store:       store,
		logger:      slog.Default(),
		collections: make(map[string]*Collection),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Create returns the named collection, creating it if necessary. Creation
// fixes the dimension; calling Create again with the same dimension returns
// the existing collection, a different dimension is a configuration error.
func (r *Registry) Create(ctx context.Context, name string, dim int) (*Collection, error) {
	if err := core.ValidateCollectionName(name); err != nil {
		return nil, err
	}
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	col, err := r.lookupLocked(ctx, name)
	if err != nil && !errors.Is(err, ErrCollectionNotFound) {
		return nil, err
	}
	if col != nil {
		if col.dim != dim {
			return nil, fmt.Errorf("%w: %s has dimension %d, requested %d",
				ErrDimensionConflict, name, col.dim, dim)
		}
		return col, nil
	}

	meta := &core.CollectionMeta{
		Name:      name,
		Dim:       dim,
		CreatedAt: time.Now(),
	}
	if err := r.store.SaveCollection(ctx, meta); err != nil {
		return nil, fmt.Errorf("persisting collection metadata: %w", err)
	}

	if r.secondary != nil {
		if err := r.secondary.EnsureCollection(ctx, name, dim); err != nil {
			r.logger.Warn("secondary collection creation failed", "collection", name, "err", err)
		}
	}

	col = &Collection{
		name:      name,
		dim:       dim,
		store:     r.store,
		secondary: r.secondary,
		logger:    r.logger,
	}
	r.collections[name] = col

	r.logger.Info("collection created", "collection", name, "dim", dim)
	return col, nil
}

// Get returns the named collection or ErrCollectionNotFound.
func (r *Registry) Get(ctx context.Context, name string) (*Collection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(ctx, name)
}

// Delete removes the collection and its stored units. Deleting a missing
// collection is a no-op.
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.collections, name)
	if err := r.store.DeleteCollection(ctx, name); err != nil {
		return err
	}

	if r.secondary != nil {
		if err := r.secondary.DeleteCollection(ctx, name); err != nil {
			r.logger.Warn("secondary collection deletion failed", "collection", name, "err", err)
		}
	}

	return nil
}

// Info returns a summary of the named collection.
func (r *Registry) Info(ctx context.Context, name string) (*core.CollectionInfo, error) {
	col, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return col.Info(), nil
}

// List returns summaries of all persisted collections.
func (r *Registry) List(ctx context.Context) ([]*core.CollectionInfo, error) {
	metas, err := r.store.ListCollections(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]*core.CollectionInfo, 0, len(metas))
	for _, meta := range metas {
		col, err := r.lookupLocked(ctx, meta.Name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, col.Info())
	}
	return infos, nil
}

// lookupLocked resolves a collection from the cache or hydrates it from
// the store. Caller holds mu.
func (r *Registry) lookupLocked(ctx context.Context, name string) (*Collection, error) {
	if col, ok := r.collections[name]; ok {
		return col, nil
	}

	meta, err := r.store.GetCollection(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
		}
		return nil, err
	}

	units, err := r.store.LoadUnits(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading units for %s: %w", name, err)
	}

	col := &Collection{
		name:      meta.Name,
		dim:       meta.Dim,
		store:     r.store,
		secondary: r.secondary,
		logger:    r.logger,
		units:     units,
	}
	r.collections[name] = col

	r.logger.Debug("collection hydrated", "collection", name, "units", len(units))
	return col, nil
}
