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


// Package storage provides the storage abstraction layer for quanta.
//
// This package defines repository interfaces that decouple storage
// implementation from the vector index and the task executor, plus the
// binary serialization of the persisted types. The BadgerDB implementation
// lives in the badger subpackage; tests use its in-memory mode.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Durability
//
// AppendUnits and SaveTask commit a write transaction before returning, so a
// crash after the call returns never loses the write.
package storage
