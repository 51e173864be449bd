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


// Package chunker turns raw extracted text into retrieval units.
//
// The semantic path splits text at heading boundaries (see DefaultRules),
// packs oversized sections along paragraph boundaries under a token budget,
// and stitches a bounded token overlap between consecutive units so that
// context survives chunk boundaries. Only the nearest heading is tracked per
// section; nested heading hierarchies are deliberately not reconstructed.
//
// Malformed input never fails a document: chunking degrades to a fixed-size
// sliding window over the raw token sequence, reported explicitly through
// Result.Degraded.
package chunker
