package chunker

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/tokenizer"
)

// Config holds the token budgets for chunking.
type Config struct {
	// ChunkSize is the token budget per unit, before overlap stitching.
	ChunkSize int

	// ChunkOverlap is the token budget for the overlap prefix carried from
	// the previous unit. Must be smaller than ChunkSize.
	ChunkOverlap int
}

// DefaultConfig returns the budgets used in production: 800-token chunks
// with a 150-token overlap.
func DefaultConfig() Config {
	return Config{ChunkSize: 800, ChunkOverlap: 150}
}

// Validate checks the configuration. Invalid budgets are a configuration
// error and are rejected at setup, never at chunk time.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d", ErrInvalidChunkSize, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d with chunk size %d", ErrInvalidOverlap, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Page is one pre-segmented page of a document. Chunking never lets text
// cross a page boundary.
type Page struct {
	Number int    // 1-based page number
	Text   string
	Kind   string // e.g. "text", "table"; defaults to "text"
}

// Result is the outcome of chunking one document. When Degraded is true the
// semantic path could not be taken and Units come from the fixed-size
// fallback; Cause records why.
type Result struct {
	Units    []*core.RetrievalUnit
	Degraded bool
	Cause    error
}

// Chunker splits raw extracted text into bounded, overlapping, heading-aware
// retrieval units. It never fails on malformed input; it degrades to a
// fixed-size sliding window instead.
type Chunker struct {
	codec  tokenizer.Codec
	config Config
	logger *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a Chunker using the given token codec and budgets.
func New(codec tokenizer.Codec, config Config, opts ...Option) (*Chunker, error) {
	if codec == nil {
		return nil, ErrCodecRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Chunker{
		codec:  codec,
		config: config,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// section is one heading-delimited span of text. Only the nearest heading is
// tracked, not a hierarchy stack.
type section struct {
	text    string
	heading string
}

// Chunk splits a document into retrieval units. When pages are supplied each
// page is chunked independently and the unit sequences are concatenated in
// page order. Empty or whitespace-only input yields an empty unit slice.
//
// Unit ids are deterministic: chunking the same input twice yields the same
// id sequence, so re-ingestion is idempotent by id.
func (c *Chunker) Chunk(docID, text string, pages []Page) Result {
	if len(pages) > 0 {
		return c.chunkPages(docID, pages)
	}

	if strings.TrimSpace(text) == "" {
		return Result{}
	}

	if !utf8.ValidString(text) {
		c.logger.Warn("document text is not valid UTF-8, using fallback chunking", "document", docID)
		sanitized := strings.ToValidUTF8(text, "")
		return Result{
			Units:    c.FallbackChunk(docID, sanitized),
			Degraded: true,
			Cause:    ErrMalformedText,
		}
	}

	units := c.chunkSemantic(docID, 1, "text", text)
	c.stitchOverlap(units)
	return Result{Units: units}
}

// chunkPages chunks each page independently so page boundaries never leak
// text across pages. Overlap stitching still runs over the combined sequence.
func (c *Chunker) chunkPages(docID string, pages []Page) Result {
	var units []*core.RetrievalUnit

	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		if !utf8.ValidString(page.Text) {
			c.logger.Warn("page text is not valid UTF-8, using fallback chunking",
				"document", docID, "page", page.Number)
			sanitized := strings.ToValidUTF8(strings.Join(pageTexts(pages), "\n\n"), "")
			return Result{
				Units:    c.FallbackChunk(docID, sanitized),
				Degraded: true,
				Cause:    ErrMalformedText,
			}
		}

		number := page.Number
		if number < 1 {
			number = 1
		}
		kind := page.Kind
		if kind == "" {
			kind = "text"
		}
		units = append(units, c.chunkSemantic(docID, number, kind, page.Text)...)
	}

	c.stitchOverlap(units)
	return Result{Units: units}
}

func pageTexts(pages []Page) []string {
	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		texts = append(texts, page.Text)
	}
	return texts
}

// chunkSemantic splits one page (or the whole document) at heading
// boundaries, further splitting oversized sections along paragraphs.
func (c *Chunker) chunkSemantic(docID string, page int, kind, text string) []*core.RetrievalUnit {
	var units []*core.RetrievalUnit

	for i, sec := range splitSections(text) {
		if strings.TrimSpace(sec.text) == "" {
			continue
		}

		if c.codec.Count(sec.text) > c.config.ChunkSize {
			for j, sub := range c.packParagraphs(sec.text) {
				sectionID := fmt.Sprintf("%d_%d", i, j)
				units = append(units, c.newUnit(docID, page, kind, sectionID, sub, sec.heading))
			}
			continue
		}

		units = append(units, c.newUnit(docID, page, kind, strconv.Itoa(i), sec.text, sec.heading))
	}

	return units
}

// splitSections splits text into sections at heading boundaries. A heading
// line starts a new section and replaces the heading context; text before
// the first heading forms a section with no heading.
func splitSections(text string) []section {
	var sections []section
	var current section

	for _, line := range strings.Split(text, "\n") {
		if heading, ok := matchHeading(line); ok {
			if strings.TrimSpace(current.text) != "" {
				sections = append(sections, current)
			}
			current = section{text: line + "\n", heading: heading}
			continue
		}
		current.text += line + "\n"
	}

	if strings.TrimSpace(current.text) != "" {
		sections = append(sections, current)
	}

	return sections
}

// packParagraphs accumulates blank-line-separated paragraphs into sub-chunks
// that fit the token budget. A single paragraph longer than the budget is
// emitted whole rather than dropped.
func (c *Chunker) packParagraphs(text string) []string {
	var chunks []string
	var current string

	for _, paragraph := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}

		candidate := paragraph
		if current != "" {
			candidate = current + "\n\n" + paragraph
		}

		if c.codec.Count(candidate) > c.config.ChunkSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = paragraph
		} else {
			current = candidate
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

func (c *Chunker) newUnit(docID string, page int, kind, sectionID, text, heading string) *core.RetrievalUnit {
	headings := []string{}
	if heading != "" {
		headings = []string{heading}
	}

	return &core.RetrievalUnit{
		Id:         fmt.Sprintf("chunk_%s_%d_%s", docID, page, sectionID),
		DocumentId: docID,
		Text:       text,
		Location:   core.Location{Page: page, Kind: kind, Section: sectionID},
		Headings:   headings,
		TokenCount: c.codec.Count(text),
	}
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// stitchOverlap prepends the trailing tokens of each unit's predecessor,
// bounded by the overlap budget, and recomputes token counts.
func (c *Chunker) stitchOverlap(units []*core.RetrievalUnit) {
	if len(units) <= 1 {
		return
	}

	for i := 1; i < len(units); i++ {
		tail := c.overlapTail(units[i-1].Text)
		if tail == "" {
			continue
		}
		units[i].Text = tail + "\n\n" + units[i].Text
		units[i].TokenCount = c.codec.Count(units[i].Text)
	}
}

// overlapTail returns the last ChunkOverlap tokens of text, trimmed backward
// to the nearest sentence boundary when more than one sentence fits. If no
// full sentence fits, the raw trailing slice is used.
func (c *Chunker) overlapTail(text string) string {
	tokens := c.codec.Encode(text)
	if len(tokens) <= c.config.ChunkOverlap {
		return text
	}

	tail := c.codec.Decode(tokens[len(tokens)-c.config.ChunkOverlap:])

	sentences := sentenceEnd.Split(tail, -1)
	if len(sentences) > 1 {
		return strings.Join(sentences[:len(sentences)-1], ". ") + "."
	}

	return tail
}

// FallbackChunk produces fixed-size sliding-window units with no heading
// context, with stride ChunkSize-ChunkOverlap over the raw token sequence.
// It is the degraded path for malformed input but is also usable standalone.
func (c *Chunker) FallbackChunk(docID, text string) []*core.RetrievalUnit {
	tokens := c.codec.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := c.config.ChunkSize - c.config.ChunkOverlap
	var units []*core.RetrievalUnit

	for i, n := 0, 0; i < len(tokens); i, n = i+stride, n+1 {
		end := i + c.config.ChunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		units = append(units, &core.RetrievalUnit{
			Id:         fmt.Sprintf("simple_chunk_%s_%d", docID, n),
			DocumentId: docID,
			Text:       c.codec.Decode(tokens[i:end]),
			Location:   core.Location{Page: 1, Kind: "text", Section: strconv.Itoa(n)},
			Headings:   []string{},
			TokenCount: end - i,
		})

		if end == len(tokens) {
			break
		}
	}

	return units
}
