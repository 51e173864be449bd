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


package index

import "errors"

var (
	// ErrStoreRequired is returned when a collection store is not provided.
	ErrStoreRequired = errors.New("collection store required")

	// ErrCollectionNotFound is returned when the named collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrDimensionConflict is returned when Create is called with a dimension
	// that differs from the one the collection was created with.
	ErrDimensionConflict = errors.New("collection dimension conflict")

	// ErrInvalidDimension is returned when a collection dimension is not positive.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrInvalidTopK is returned when a search limit is not positive.
	ErrInvalidTopK = errors.New("topK must be positive")

	// ErrEmbedderRequired is returned when a reindex is attempted without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")
)
