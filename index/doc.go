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


// Package index provides named vector collections with durable storage
// and cosine-similarity search.
//
// A Registry owns the set of collections. Each Collection holds
// L2-normalized retrieval units in memory, backed by a storage.CollectionStore
// that is written before any add returns. Search deduplicates hits by source
// document and can fall back to an optional remote secondary index when the
// local collection comes up short.
package index
