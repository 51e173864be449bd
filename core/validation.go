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

import (
	"fmt"
	"strings"
)

// ValidateUnit validates a RetrievalUnit according to domain rules.
//
// Validation rules:
//   - Id must not be empty
//   - DocumentId must not be empty
//
// NOT validated (populated later in the pipeline):
//   - Vector (can be empty until the embedder runs)
//   - TokenCount (maintained by the chunker)
func ValidateUnit(unit *RetrievalUnit) error {
	if unit == nil {
		return fmt.Errorf("%w: unit is nil", ErrInvalidUnit)
	}

	if unit.Id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUnit, ErrEmptyUnitId)
	}

	if unit.DocumentId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUnit, ErrEmptyDocumentId)
	}

	return nil
}

// ValidateIndexableUnit validates a RetrievalUnit that is about to be added to
// a collection of the given dimensionality. A unit without an embedding is
// never indexed; a unit whose vector length disagrees with the collection is
// a configuration error.
func ValidateIndexableUnit(unit *RetrievalUnit, dim int) error {
	if err := ValidateUnit(unit); err != nil {
		return err
	}

	if len(unit.Vector) == 0 {
		return fmt.Errorf("%w: unit %s: %w", ErrInvalidUnit, unit.Id, ErrMissingVector)
	}

	if len(unit.Vector) != dim {
		return fmt.Errorf("%w: unit %s has dimension %d, collection expects %d",
			ErrDimensionMismatch, unit.Id, len(unit.Vector), dim)
	}

	return nil
}

// ValidateCollectionName validates a collection name. Names must be
// non-empty and must not contain ':', which delimits segments of the
// storage keys: the units of collection "a" live under prefix
// "colunit:a:", and a name like "a:b" would place its units inside that
// prefix.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidCollectionName)
	}
	if strings.ContainsRune(name, ':') {
		return fmt.Errorf("%w: %q contains ':'", ErrInvalidCollectionName, name)
	}
	return nil
}

// ValidateTaskStatus validates that a TaskStatus has a valid value.
func ValidateTaskStatus(status TaskStatus) error {
	if status < TaskPending || status > TaskCancelled {
		return fmt.Errorf("%w: value %d", ErrInvalidTaskStatus, status)
	}
	return nil
}
