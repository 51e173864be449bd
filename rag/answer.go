// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rag

import (
	"context"
	"log/slog"

	"github.com/poiesic/quanta/ai"
	"github.com/poiesic/quanta/core"
)

// NotFoundResponse is the fixed reply for queries with no matching content.
const NotFoundResponse = "I cannot find information about this in the provided documents."

// Answer is one assembled grounded response.
type Answer struct {
	Text      string
	Citations []*core.Citation
	Sources   []*core.Source
}

// Answerer assembles grounded answers from retrieved hits.
type Answerer struct {
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAnswerer creates a new answerer.
func NewAnswerer(generator ai.Generator, opts ...Option) (*Answerer, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Answerer{
		generator: generator,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Answer generates a grounded response for the query from the retrieved
// hits and resolves its citations. With no hits it short-circuits to the
// fixed not-found response without calling the generator. When onFragment
// is non-nil the generated text is streamed through it.
func (a *Answerer) Answer(ctx context.Context, query string, hits []*core.SearchHit, history []Message, onFragment func(string)) (*Answer, error) {
	if len(hits) == 0 {
		if onFragment != nil {
			onFragment(NotFoundResponse)
		}
		return &Answer{Text: NotFoundResponse}, nil
	}

	prompt := BuildPrompt(query, hits, history)

	text, err := a.generator.Generate(ctx, prompt, onFragment)
	if err != nil {
		a.logger.Error("answer generation failed", "err", err)
		return nil, err
	}

	citations := ExtractCitations(text, hits)
	a.logger.Debug("answer assembled", "hits", len(hits), "citations", len(citations))

	return &Answer{
		Text:      text,
		Citations: citations,
		Sources:   FormatSources(citations),
	}, nil
}
