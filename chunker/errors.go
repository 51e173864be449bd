package chunker

import "errors"

var (
	// ErrCodecRequired is returned when a token codec is not provided.
	ErrCodecRequired = errors.New("token codec required")

	// ErrInvalidChunkSize indicates a non-positive chunk size budget.
	ErrInvalidChunkSize = errors.New("invalid chunk size")

	// ErrInvalidOverlap indicates an overlap budget that is negative or not
	// smaller than the chunk size.
	ErrInvalidOverlap = errors.New("invalid chunk overlap")

	// ErrMalformedText indicates input that could not be chunked semantically
	// and triggered the fixed-size fallback.
	ErrMalformedText = errors.New("malformed input text")
)
