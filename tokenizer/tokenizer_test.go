package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiktokenRoundTrip(t *testing.T) {
	codec, err := NewCL100K()
	if err != nil {
		// The BPE vocabulary is fetched on first use; without it there is
		// nothing meaningful to test here.
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}

	text := "The quick brown fox jumps over the lazy dog."
	tokens := codec.Encode(text)
	require.NotEmpty(t, tokens)

	assert.Equal(t, len(tokens), codec.Count(text))
	assert.Equal(t, text, codec.Decode(tokens))
}

func TestTiktokenEmptyText(t *testing.T) {
	codec, err := NewCL100K()
	if err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}

	assert.Equal(t, 0, codec.Count(""))
	assert.Empty(t, codec.Encode(""))
}
