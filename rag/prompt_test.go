package rag

import (
	"strings"
	"testing"

	"github.com/poiesic/quanta/core"
	"github.com/stretchr/testify/assert"
)

func TestBuildPromptNumbersContextBlocks(t *testing.T) {
	prompt := BuildPrompt("What is the capital?", testHits(), nil)

	assert.Contains(t, prompt, "[1] Source: Page 1 - Geography")
	assert.Contains(t, prompt, "Paris is the capital of France.")
	assert.Contains(t, prompt, "[2] Source: Page 3")
	assert.Contains(t, prompt, "User: What is the capital?")
	assert.True(t, strings.HasSuffix(prompt, "Assistant: Based on the provided context, "))

	// Context blocks appear in hit order.
	assert.Less(t, strings.Index(prompt, "[1] Source"), strings.Index(prompt, "[2] Source"))
}

func TestBuildPromptHistoryTail(t *testing.T) {
	history := []Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "second"},
		{Role: "user", Content: "third"},
		{Role: "assistant", Content: "fourth"},
		{Role: "user", Content: "fifth"},
	}

	prompt := BuildPrompt("query", testHits(), history)

	// Only the last four turns survive.
	assert.NotContains(t, prompt, "first")
	assert.Contains(t, prompt, "Assistant: second")
	assert.Contains(t, prompt, "User: third")
	assert.Contains(t, prompt, "User: fifth")
}

func TestBuildPromptWithoutLocation(t *testing.T) {
	hits := []*core.SearchHit{{UnitId: "u1", DocumentId: "d1", Text: "body"}}
	prompt := BuildPrompt("query", hits, nil)
	assert.Contains(t, prompt, "[1] Source: \nbody")
}
