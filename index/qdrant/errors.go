package qdrant

import "errors"

var (
	// ErrBaseURLRequired is returned when a base URL is not provided.
	ErrBaseURLRequired = errors.New("qdrant base URL required")

	// ErrInvalidTimeout is returned when a non-positive timeout is configured.
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrHTTPClientRequired is returned when a nil HTTP client is configured.
	ErrHTTPClientRequired = errors.New("HTTP client required")

	// ErrRequestFailed is returned when Qdrant answers with a non-2xx status.
	ErrRequestFailed = errors.New("qdrant request failed")
)
