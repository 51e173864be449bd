// Package ingestion provides pipeline orchestration for turning documents
// into indexed retrieval units.
//
// The Pipeline type manages the ingestion workflow for a document:
//   - Chunking the text into retrieval units
//   - Generating embeddings in a single bounded batch call
//   - Creating the target collection on first use and indexing the units
//
// Documents without an explicit id get one derived from their content hash,
// so re-ingesting identical content lands on the same document id.
package ingestion
