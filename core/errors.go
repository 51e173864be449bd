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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidUnit indicates a RetrievalUnit failed validation.
	ErrInvalidUnit = errors.New("invalid retrieval unit")

	// ErrEmptyUnitId indicates the unit Id field is empty.
	ErrEmptyUnitId = errors.New("unit id cannot be empty")

	// ErrEmptyDocumentId indicates the unit DocumentId field is empty.
	ErrEmptyDocumentId = errors.New("document id cannot be empty")

	// ErrMissingVector indicates a unit has no embedding vector attached.
	ErrMissingVector = errors.New("unit has no embedding vector")

	// ErrDimensionMismatch indicates an embedding vector whose length does not
	// match the collection dimensionality. This is a configuration error.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidTaskStatus indicates an invalid TaskStatus value.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidCollectionName indicates a collection name that is empty or
	// contains characters reserved by the storage key encoding.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)
