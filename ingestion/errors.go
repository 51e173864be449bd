package ingestion

import "errors"

var (
	// ErrRegistryRequired is returned when an index registry is not provided.
	ErrRegistryRequired = errors.New("index registry required")

	// ErrChunkerRequired is returned when a chunker is not provided.
	ErrChunkerRequired = errors.New("chunker required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrCollectionRequired is returned when a document names no collection.
	ErrCollectionRequired = errors.New("collection required")

	// ErrEmptyDocument is returned when a document has neither text nor pages.
	ErrEmptyDocument = errors.New("document has no content")
)
