package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

// Codec converts text to and from a token sequence. Implementations must be
// stateless and safe for concurrent use.
type Codec interface {
	// Encode converts text into its token sequence.
	Encode(text string) []int

	// Decode converts a token sequence back into text.
	Decode(tokens []int) string

	// Count returns the exact token length of text. Equivalent to
	// len(Encode(text)) but allows implementations to avoid the allocation.
	Count(text string) int
}

// Tiktoken is a Codec backed by a tiktoken BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

var _ Codec = (*Tiktoken)(nil)

// NewCL100K returns a Codec for the cl100k_base encoding, the encoding used
// to budget chunk sizes throughout the system.
func NewCL100K() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &Tiktoken{enc: enc}, nil
}

// Encode converts text into its token sequence.
func (t *Tiktoken) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts a token sequence back into text.
func (t *Tiktoken) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Count returns the exact token length of text.
func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}
