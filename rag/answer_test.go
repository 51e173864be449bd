package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/quanta/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnswererValidation(t *testing.T) {
	_, err := NewAnswerer(nil)
	assert.Equal(t, ErrGeneratorRequired, err)
}

func TestAnswerResolvesCitations(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.Answer = "Paris is the capital [1]. It borders eight countries [2]."

	answerer, err := NewAnswerer(generator)
	require.NoError(t, err)

	answer, err := answerer.Answer(context.Background(), "capital of France?", testHits(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, generator.Answer, answer.Text)
	require.Len(t, answer.Citations, 2)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "doc1", answer.Sources[0].DocumentId)

	// The prompt carried the numbered context.
	require.Len(t, generator.Prompts(), 1)
	assert.Contains(t, generator.Prompts()[0], "[1] Source:")
}

func TestAnswerWithoutHitsShortCircuits(t *testing.T) {
	generator := mock.NewMockGenerator()
	answerer, err := NewAnswerer(generator)
	require.NoError(t, err)

	var streamed strings.Builder
	answer, err := answerer.Answer(context.Background(), "anything", nil, nil, func(fragment string) {
		streamed.WriteString(fragment)
	})
	require.NoError(t, err)

	assert.Equal(t, NotFoundResponse, answer.Text)
	assert.Equal(t, NotFoundResponse, streamed.String())
	assert.Empty(t, answer.Citations)
	assert.Zero(t, generator.CallCount())
}

func TestAnswerStreamsFragments(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
		for _, fragment := range []string{"Paris ", "is the capital ", "[1]."} {
			onFragment(fragment)
		}
		return "Paris is the capital [1].", nil
	}

	answerer, err := NewAnswerer(generator)
	require.NoError(t, err)

	var streamed strings.Builder
	answer, err := answerer.Answer(context.Background(), "capital?", testHits(), nil, func(fragment string) {
		streamed.WriteString(fragment)
	})
	require.NoError(t, err)

	assert.Equal(t, answer.Text, streamed.String())
	assert.Len(t, answer.Citations, 1)
}

func TestAnswerGenerationFailure(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(ctx context.Context, prompt string, onFragment func(string)) (string, error) {
		return "", errors.New("model overloaded")
	}

	answerer, err := NewAnswerer(generator)
	require.NoError(t, err)

	_, err = answerer.Answer(context.Background(), "query", testHits(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}
