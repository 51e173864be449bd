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
	"regexp"
	"strconv"

	"github.com/poiesic/quanta/core"
)

// SnippetLength bounds citation previews.
const SnippetLength = 200

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// ExtractCitations parses inline [n] markers out of generated text and
// resolves them against the hits that were supplied to generation, in the
// same order. Markers are 1-indexed; citations come back in first-appearance
// order with duplicates kept. A marker outside the hit range is skipped
// silently, since models hallucinate marker numbers.
func ExtractCitations(text string, hits []*core.SearchHit) []*core.Citation {
	matches := markerPattern.FindAllStringSubmatch(text, -1)

	citations := make([]*core.Citation, 0, len(matches))
	for _, match := range matches {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if n < 1 || n > len(hits) {
			continue
		}

		hit := hits[n-1]
		citations = append(citations, &core.Citation{
			UnitId:     hit.UnitId,
			DocumentId: hit.DocumentId,
			Location:   hit.Location,
			Headings:   hit.Headings,
			Snippet:    snippet(hit.Text),
		})
	}
	return citations
}

// FormatSources strips internal fields from citations for presentation.
func FormatSources(citations []*core.Citation) []*core.Source {
	sources := make([]*core.Source, len(citations))
	for i, citation := range citations {
		sources[i] = &core.Source{
			DocumentId: citation.DocumentId,
			Location:   citation.Location,
			Headings:   citation.Headings,
			Snippet:    citation.Snippet,
		}
	}
	return sources
}

// snippet truncates text to SnippetLength characters with an ellipsis
// marker. Truncation counts runes, not bytes, so multi-byte text is never
// cut mid-character.
func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= SnippetLength {
		return text
	}
	return string(runes[:SnippetLength]) + "..."
}
