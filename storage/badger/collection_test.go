package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/storage"
)

func testUnit(id, doc, text string) *core.RetrievalUnit {
	return &core.RetrievalUnit{
		Id:         id,
		DocumentId: doc,
		Text:       text,
		TokenCount: len(text),
		Vector:     []float32{0.1, 0.2, 0.3},
	}
}

func TestCollectionMetaRoundTrip(t *testing.T) {
	colRepo, taskRepo, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	ctx := context.Background()

	meta := &core.CollectionMeta{
		Name:      "docs",
		Dim:       384,
		CreatedAt: time.Now(),
	}
	if err := colRepo.SaveCollection(ctx, meta); err != nil {
		t.Fatalf("Failed to save collection: %v", err)
	}

	got, err := colRepo.GetCollection(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to get collection: %v", err)
	}
	if got.Name != "docs" || got.Dim != 384 {
		t.Fatalf("Unexpected meta: %+v", got)
	}

	metas, err := colRepo.ListCollections(ctx)
	if err != nil {
		t.Fatalf("Failed to list collections: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("Expected 1 collection, got %d", len(metas))
	}
}

func TestSaveCollectionRejectsReservedName(t *testing.T) {
	colRepo, taskRepo, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	ctx := context.Background()

	// A colliding name would make "docs:sub" units live inside the key
	// range of collection "docs".
	meta := &core.CollectionMeta{Name: "docs:sub", Dim: 3, CreatedAt: time.Now()}
	if err := colRepo.SaveCollection(ctx, meta); !errors.Is(err, core.ErrInvalidCollectionName) {
		t.Fatalf("Expected ErrInvalidCollectionName, got %v", err)
	}
}

func TestGetCollectionNotFound(t *testing.T) {
	colRepo, taskRepo, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	_, err = colRepo.GetCollection(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestAppendAndLoadUnitsPreservesOrder(t *testing.T) {
	colRepo, taskRepo, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	ctx := context.Background()

	first := []*core.RetrievalUnit{
		testUnit("u1", "doc_a", "alpha"),
		testUnit("u2", "doc_a", "bravo"),
	}
	if err := colRepo.AppendUnits(ctx, "docs", first...); err != nil {
		t.Fatalf("Failed to append units: %v", err)
	}

	// Second batch must land after the first.
	if err := colRepo.AppendUnits(ctx, "docs", testUnit("u3", "doc_b", "charlie")); err != nil {
		t.Fatalf("Failed to append units: %v", err)
	}

	units, err := colRepo.LoadUnits(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to load units: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("Expected 3 units, got %d", len(units))
	}
	for i, want := range []string{"u1", "u2", "u3"} {
		if units[i].Id != want {
			t.Fatalf("Position %d: expected %s, got %s", i, want, units[i].Id)
		}
	}
}

func TestSequenceRecoveredAfterReopen(t *testing.T) {
	colRepo, taskRepo, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if err := colRepo.AppendUnits(ctx, "docs", testUnit("u1", "doc_a", "alpha")); err != nil {
		t.Fatalf("Failed to append units: %v", err)
	}

	// A fresh repository over the same backend must not reuse sequence 0.
	fresh := NewCollectionRepository(backend)
	if err := fresh.AppendUnits(ctx, "docs", testUnit("u2", "doc_a", "bravo")); err != nil {
		t.Fatalf("Failed to append units: %v", err)
	}

	units, err := fresh.LoadUnits(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to load units: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("Expected 2 units, got %d", len(units))
	}
	if units[0].Id != "u1" || units[1].Id != "u2" {
		t.Fatalf("Unexpected order: %s, %s", units[0].Id, units[1].Id)
	}
}

func TestReplaceUnits(t *testing.T) {
	colRepo, taskRepo, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	ctx := context.Background()

	if err := colRepo.AppendUnits(ctx, "docs",
		testUnit("u1", "doc_a", "alpha"),
		testUnit("u2", "doc_a", "bravo"),
		testUnit("u3", "doc_b", "charlie")); err != nil {
		t.Fatalf("Failed to append units: %v", err)
	}

	if err := colRepo.ReplaceUnits(ctx, "docs", testUnit("r1", "doc_c", "delta")); err != nil {
		t.Fatalf("Failed to replace units: %v", err)
	}

	units, err := colRepo.LoadUnits(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to load units: %v", err)
	}
	if len(units) != 1 || units[0].Id != "r1" {
		t.Fatalf("Expected single unit r1, got %d units", len(units))
	}

	// Appends after a replace continue from the new sequence.
	if err := colRepo.AppendUnits(ctx, "docs", testUnit("r2", "doc_c", "echo")); err != nil {
		t.Fatalf("Failed to append units: %v", err)
	}
	units, err = colRepo.LoadUnits(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to load units: %v", err)
	}
	if len(units) != 2 || units[1].Id != "r2" {
		t.Fatalf("Expected r2 appended last, got %d units", len(units))
	}
}

func TestDeleteCollection(t *testing.T) {
	colRepo, taskRepo, backend, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}
	defer func() { colRepo.Close(); taskRepo.Close(); backend.Close() }()

	ctx := context.Background()

	meta := &core.CollectionMeta{Name: "docs", Dim: 3, CreatedAt: time.Now()}
	if err := colRepo.SaveCollection(ctx, meta); err != nil {
		t.Fatalf("Failed to save collection: %v", err)
	}
	if err := colRepo.AppendUnits(ctx, "docs", testUnit("u1", "doc_a", "alpha")); err != nil {
		t.Fatalf("Failed to append units: %v", err)
	}

	if err := colRepo.DeleteCollection(ctx, "docs"); err != nil {
		t.Fatalf("Failed to delete collection: %v", err)
	}

	if _, err := colRepo.GetCollection(ctx, "docs"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	units, err := colRepo.LoadUnits(ctx, "docs")
	if err != nil {
		t.Fatalf("Failed to load units: %v", err)
	}
	if len(units) != 0 {
		t.Fatalf("Expected no units after delete, got %d", len(units))
	}

	// Deleting a missing collection is a no-op.
	if err := colRepo.DeleteCollection(ctx, "docs"); err != nil {
		t.Fatalf("Expected idempotent delete, got %v", err)
	}
}
