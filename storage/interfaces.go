package storage

import (
	"context"
	"time"

	"github.com/poiesic/quanta/core"
)

// CollectionStore persists collection metadata and the retrieval units of
// each collection. Implementations must be thread-safe and support
// concurrent access.
type CollectionStore interface {
	// SaveCollection persists collection metadata. Overwrites any existing
	// metadata for the same name.
	SaveCollection(ctx context.Context, meta *core.CollectionMeta) error

	// GetCollection retrieves collection metadata by name.
	// Returns ErrNotFound if the collection doesn't exist.
	GetCollection(ctx context.Context, name string) (*core.CollectionMeta, error)

	// ListCollections retrieves metadata for all collections.
	ListCollections(ctx context.Context) ([]*core.CollectionMeta, error)

	// DeleteCollection removes the collection metadata and every unit stored
	// under it. Deleting a collection that doesn't exist is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// AppendUnits durably appends units to a collection within a single
	// transaction: either every unit is persisted or none is. The write has
	// reached disk when the call returns.
	AppendUnits(ctx context.Context, collection string, units ...*core.RetrievalUnit) error

	// LoadUnits retrieves all units of a collection in insertion order.
	LoadUnits(ctx context.Context, collection string) ([]*core.RetrievalUnit, error)

	// ReplaceUnits atomically replaces the full unit set of a collection.
	// Used by reindexing after the embedding model changes.
	ReplaceUnits(ctx context.Context, collection string, units ...*core.RetrievalUnit) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// TaskRepository persists ingestion task records. The executor is the only
// writer; other callers read task state.
type TaskRepository interface {
	// SaveTask persists a task record, overwriting any previous state for
	// the same id.
	SaveTask(ctx context.Context, task *core.Task) error

	// GetTask retrieves a task by id.
	// Returns ErrNotFound if the task doesn't exist.
	GetTask(ctx context.Context, id string) (*core.Task, error)

	// ListTasks retrieves all task records, newest first.
	ListTasks(ctx context.Context) ([]*core.Task, error)

	// DeleteTerminalBefore removes terminal tasks that finished before the
	// cutoff. Returns the number of tasks removed.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
