package index

import (
	"context"

	"github.com/poiesic/quanta/core"
)

// Secondary is a remote vector index mirrored alongside the local one.
// Adds are forwarded to it and searches consult it when the local
// collection cannot fill the requested number of hits. All secondary
// failures are advisory: the local index remains the source of truth.
type Secondary interface {
	// EnsureCollection creates the remote collection if it does not exist.
	EnsureCollection(ctx context.Context, name string, dim int) error

	// Upsert writes units into the remote collection.
	Upsert(ctx context.Context, collection string, units []*core.RetrievalUnit) error

	// Search returns up to limit hits from the remote collection.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]*core.SearchHit, error)

	// DeleteCollection removes the remote collection. Missing collections
	// are not an error.
	DeleteCollection(ctx context.Context, name string) error
}
