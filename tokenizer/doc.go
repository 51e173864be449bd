// Package tokenizer adapts a BPE token encoding behind a small Codec
// interface. The chunker uses a Codec for all length-bounded operations so
// that token budgets always agree with the tokenization the embedding stack
// sees.
package tokenizer
