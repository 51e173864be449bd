package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocumentIDFromContent generates a deterministic document ID from raw content
// using BLAKE2b hashing. Identical content always produces the same ID, which
// makes re-ingestion of the same document idempotent end to end.
func DocumentIDFromContent(content []byte) string {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Location identifies where a retrieval unit came from within its document.
type Location struct {
	Page    int    // 1-based page number; defaults to 1 for unpaged sources
	Kind    string // source kind, e.g. "text", "table", "crawled"
	Section string // section index within the page, e.g. "2" or "2_1"
}

// RetrievalUnit is one chunk of source text, the smallest span indexed and
// retrieved independently. Units are produced by the chunker and enriched
// with an embedding vector before being added to a collection.
type RetrievalUnit struct {
	Id         string // deterministic: derived from document, page and section
	DocumentId string
	Text       string // may include an overlap prefix from the previous unit
	Location   Location
	Headings   []string  // heading context in scope, outermost first
	TokenCount int       // exact tokenization length of Text
	Vector     []float32 // embedding; empty until the embedder has run
}

// CollectionMeta describes a named index scope. The embedding dimensionality
// is fixed when the collection is created; later insertions must match it.
type CollectionMeta struct {
	Name      string
	Dim       int
	CreatedAt time.Time
}

// CollectionInfo is a point-in-time summary of a collection.
type CollectionInfo struct {
	Name   string
	Count  int
	Status string
}

// SearchHit is one result of a similarity query. Text, document, location and
// headings are denormalized so callers can present the hit without a second
// lookup.
type SearchHit struct {
	UnitId     string
	Score      float32 // cosine similarity in [-1,1], higher is better
	Text       string
	DocumentId string
	Location   Location
	Headings   []string
}

// Citation resolves one inline marker in a generated answer back to the
// retrieval unit it references.
type Citation struct {
	UnitId     string
	DocumentId string
	Location   Location
	Headings   []string
	Snippet    string // truncated preview of the unit text
}

// Source is the external form of a Citation with internal fields stripped.
type Source struct {
	DocumentId string
	Location   Location
	Headings   []string
	Snippet    string
}

// TaskStatus tracks a task through its lifecycle state machine.
type TaskStatus int

const (
	// TaskPending means the task is recorded but has not acquired a worker slot.
	TaskPending TaskStatus = iota + 1
	// TaskRunning means the task holds a worker slot and its pipeline is executing.
	TaskRunning
	// TaskCompleted means the pipeline finished successfully.
	TaskCompleted
	// TaskFailed means the pipeline returned or raised an error.
	TaskFailed
	// TaskCancelled means the task was cancelled before completing.
	TaskCancelled
)

// String returns the canonical name of the status.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "PENDING"
	case TaskRunning:
		return "RUNNING"
	case TaskCompleted:
		return "COMPLETED"
	case TaskFailed:
		return "FAILED"
	case TaskCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status is a terminal state. A task reaches
// exactly one terminal state and never leaves it.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Task is one ingestion pipeline run tracked by the executor. External
// callers only read task state; the executor owns all transitions.
type Task struct {
	Id          string
	Type        string // pipeline name, e.g. "document", "url"
	Status      TaskStatus
	CreatedAt   time.Time
	StartedAt   time.Time // zero until the task reaches RUNNING
	CompletedAt time.Time // zero until the task reaches a terminal state
	Result      string    // opaque success payload
	Error       string    // failure message, preserved verbatim
}
