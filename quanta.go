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


package quanta

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/quanta/ai"
	"github.com/poiesic/quanta/ai/openai"
	"github.com/poiesic/quanta/chunker"
	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/executor"
	"github.com/poiesic/quanta/index"
	"github.com/poiesic/quanta/ingestion"
	"github.com/poiesic/quanta/rag"
	"github.com/poiesic/quanta/storage"
	"github.com/poiesic/quanta/storage/badger"
	"github.com/poiesic/quanta/tokenizer"
)

// DefaultTopK is the number of hits retrieved for a query when the caller
// does not say otherwise.
const DefaultTopK = 8

// Service wires the whole retrieval stack together: durable storage, the
// collection registry, the chunking and ingestion pipeline, the task
// executor and the answer assembler.
type Service struct {
	backend  *badger.Backend
	colRepo  storage.CollectionStore
	taskRepo storage.TaskRepository
	registry *index.Registry
	provider ai.Provider
	exec     *executor.Executor
	pipeline *ingestion.Pipeline
	answerer *rag.Answerer
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	aiConfig    *ai.Config
	provider    ai.Provider
	secondary   index.Secondary
	chunkConfig chunker.Config
	concurrency int
	inMemory    bool
}

// WithAIConfig sets the configuration for the OpenAI-compatible provider.
// Ignored when WithProvider is also given.
func WithAIConfig(config *ai.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI client.
func WithProvider(provider ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = provider
	}
}

// WithSecondary attaches a remote secondary index.
func WithSecondary(secondary index.Secondary) ServiceOption {
	return func(o *serviceOptions) {
		o.secondary = secondary
	}
}

// WithChunkConfig overrides the chunking budgets.
func WithChunkConfig(config chunker.Config) ServiceOption {
	return func(o *serviceOptions) {
		o.chunkConfig = config
	}
}

// WithConcurrency sets the ingestion task concurrency cap.
// Default is 2.
func WithConcurrency(n int) ServiceOption {
	return func(o *serviceOptions) {
		o.concurrency = n
	}
}

// WithInMemory uses an in-memory store instead of the given path.
func WithInMemory() ServiceOption {
	return func(o *serviceOptions) {
		o.inMemory = true
	}
}

// NewService opens the store at filePath and assembles the service.
func NewService(filePath string, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		aiConfig:    ai.DefaultConfig(),
		chunkConfig: chunker.DefaultConfig(),
		concurrency: 2,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	colRepo := badger.NewCollectionRepository(backend)
	taskRepo := badger.NewTaskRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	registryOpts := []index.Option{}
	if options.secondary != nil {
		registryOpts = append(registryOpts, index.WithSecondary(options.secondary))
	}
	registry, err := index.NewRegistry(colRepo, registryOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	codec, err := tokenizer.NewCL100K()
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	chunks, err := chunker.New(codec, options.chunkConfig)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(registry, chunks, provider,
		ingestion.WithRequestTimeout(options.aiConfig.RequestTimeout))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	exec, err := executor.New(taskRepo, executor.WithConcurrency(options.concurrency))
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	answerer, err := rag.NewAnswerer(provider.Generator())
	if err != nil {
		exec.Release()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Service{
		backend:  backend,
		colRepo:  colRepo,
		taskRepo: taskRepo,
		registry: registry,
		provider: provider,
		exec:     exec,
		pipeline: pipeline,
		answerer: answerer,
		logger:   slog.Default(),
	}, nil
}

// Close shuts down the executor, provider and storage.
func (s *Service) Close() error {
	s.exec.Release()

	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.colRepo.Close(); err != nil {
		s.logger.Error("error closing collection store", "err", err)
		return err
	}
	if err := s.taskRepo.Close(); err != nil {
		s.logger.Error("error closing task repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Registry returns the collection registry.
func (s *Service) Registry() *index.Registry {
	return s.registry
}

// Executor returns the task executor.
func (s *Service) Executor() *executor.Executor {
	return s.exec
}

// Ingest runs the ingestion pipeline synchronously.
func (s *Service) Ingest(ctx context.Context, doc *ingestion.Document) (*ingestion.Result, error) {
	return s.pipeline.Ingest(ctx, doc)
}

// IngestAsync submits the ingestion pipeline as a background task and
// returns the task id. Progress is observed via TaskStatus.
func (s *Service) IngestAsync(ctx context.Context, doc *ingestion.Document) (string, error) {
	return s.exec.Submit(ctx, "ingest", func(taskCtx context.Context) (string, error) {
		result, err := s.pipeline.Ingest(taskCtx, doc)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("document %s: %d units indexed in %s",
			result.DocumentId, result.Units, result.Collection), nil
	})
}

// Search embeds the query and returns up to topK hits from the collection.
// topK values below 1 fall back to DefaultTopK.
func (s *Service) Search(ctx context.Context, collection, query string, topK int, opts ...index.SearchOption) ([]*core.SearchHit, error) {
	if topK < 1 {
		topK = DefaultTopK
	}

	col, err := s.registry.Get(ctx, collection)
	if err != nil {
		return nil, err
	}

	vector, err := s.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return col.Search(ctx, vector, topK, opts...)
}

// Ask retrieves context for the query and assembles a grounded answer with
// citations. When onFragment is non-nil the answer streams through it.
func (s *Service) Ask(ctx context.Context, collection, query string, history []rag.Message, onFragment func(string)) (*rag.Answer, error) {
	hits, err := s.Search(ctx, collection, query, DefaultTopK)
	if err != nil {
		return nil, err
	}
	return s.answerer.Answer(ctx, query, hits, history, onFragment)
}

// Collections lists all collections.
func (s *Service) Collections(ctx context.Context) ([]*core.CollectionInfo, error) {
	return s.registry.List(ctx)
}

// DeleteCollection removes a collection and its stored units.
func (s *Service) DeleteCollection(ctx context.Context, name string) error {
	return s.registry.Delete(ctx, name)
}

// Reindex re-embeds every unit in a collection with the current embedder.
func (s *Service) Reindex(ctx context.Context, collection string) (int, error) {
	return s.registry.Reindex(ctx, collection, s.provider.Embedder(), nil)
}

// Tasks lists all task records, newest first.
func (s *Service) Tasks(ctx context.Context) ([]*core.Task, error) {
	return s.exec.List(ctx)
}

// TaskStatus returns the current record of one task.
func (s *Service) TaskStatus(ctx context.Context, id string) (*core.Task, error) {
	return s.exec.Status(ctx, id)
}

// CancelTask requests cancellation of a task.
func (s *Service) CancelTask(ctx context.Context, id string) error {
	return s.exec.Cancel(ctx, id)
}

// CleanupTasks purges terminal tasks older than the given age.
func (s *Service) CleanupTasks(ctx context.Context, olderThan time.Duration) (int, error) {
	return s.exec.Cleanup(ctx, olderThan)
}
