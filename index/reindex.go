package index

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/quanta/ai"
	"github.com/poiesic/quanta/core"
)

// ReindexConfig holds configuration for a reindex run.
type ReindexConfig struct {
	// BatchSize is the number of units embedded per API call
	BatchSize int

	// MaxRetries is the maximum number of retry attempts for failed embedding calls
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultReindexConfig returns a ReindexConfig with sensible defaults.
func DefaultReindexConfig() *ReindexConfig {
	return &ReindexConfig{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Reindex re-embeds every unit in the named collection with the given
// embedder and atomically replaces the stored set. If the embedder's
// dimension differs from the collection's, the collection is migrated to
// the new dimension. Returns the number of units reindexed.
//
// The collection is locked for the duration: searches block until the
// replacement is complete and never observe a mix of old and new vectors.
func (r *Registry) Reindex(ctx context.Context, name string, embedder ai.Embedder, config *ReindexConfig) (int, error) {
	if embedder == nil {
		return 0, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultReindexConfig()
	}

	col, err := r.Get(ctx, name)
	if err != nil {
		return 0, err
	}

	col.mu.Lock()
	defer col.mu.Unlock()

	if len(col.units) == 0 {
		return 0, nil
	}

	dim := embedder.Dimension()
	if dim <= 0 {
		return 0, ErrInvalidDimension
	}

	reindexed := make([]*core.RetrievalUnit, 0, len(col.units))
	for start := 0; start < len(col.units); start += config.BatchSize {
		end := min(start+config.BatchSize, len(col.units))
		batch := col.units[start:end]

		texts := make([]string, len(batch))
		for i, unit := range batch {
			texts[i] = unit.Text
		}

		var embeddings [][]float32
		err := retryWithBackoff(ctx, func() error {
			var err error
			embeddings, err = embedder.EmbedTexts(ctx, texts)
			return err
		}, config.MaxRetries, config.RetryDelay)
		if err != nil {
			return 0, fmt.Errorf("embedding batch at offset %d: %w", start, err)
		}
		if len(embeddings) != len(batch) {
			return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d",
				len(batch), len(embeddings))
		}

		for i, unit := range batch {
			clone := *unit
			clone.Vector = Normalize(embeddings[i])
			reindexed = append(reindexed, &clone)
		}
	}

	if err := r.store.ReplaceUnits(ctx, name, reindexed...); err != nil {
		return 0, fmt.Errorf("replacing units: %w", err)
	}

	if dim != col.dim {
		meta, err := r.store.GetCollection(ctx, name)
		if err != nil {
			return 0, fmt.Errorf("loading collection metadata: %w", err)
		}
		meta.Dim = dim
		if err := r.store.SaveCollection(ctx, meta); err != nil {
			return 0, fmt.Errorf("updating collection metadata: %w", err)
		}
		col.dim = dim
	}
	col.units = reindexed

	if col.secondary != nil {
		if err := col.secondary.EnsureCollection(ctx, name, dim); err != nil {
			r.logger.Warn("secondary collection creation failed", "collection", name, "err", err)
		} else if err := col.secondary.Upsert(ctx, name, reindexed); err != nil {
			r.logger.Warn("secondary index upsert failed", "collection", name, "err", err)
		}
	}

	r.logger.Info("collection reindexed", "collection", name, "units", len(reindexed), "dim", dim)
	return len(reindexed), nil
}

// retryWithBackoff retries fn with exponential backoff until it succeeds,
// the attempts are exhausted, or the context is cancelled.
func retryWithBackoff(ctx context.Context, fn func() error, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if lastErr = fn(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
