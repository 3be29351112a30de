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


// Package storage provides the storage abstraction layer for memoria.
//
// This package defines the entity store contract the ingestion and chunking
// components rely on: get-or-create by primary key, ordered filter/limit
// queries, append-only many-to-many association and transactional batch
// writes. It decouples storage implementation from business logic so that
// different backends (BadgerDB, in-memory, etc.) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backend
// implementations:
//
//	repo, err := badger.NewMessageRepository(backend)  // returns storage.MessageRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern, one repository per
// entity kind:
//
//   - UserRepository, ChatRepository, MediaRepository: lazily created graph
//     entities with atomic get-or-create
//   - MessageRepository: messages keyed by (chat, id), with ordered tail
//     queries and relation prefetch
//   - ChunkRepository: derived chunk artifacts with append-only member
//     associations and vector similarity search
//
// # Get-or-create Semantics
//
// GetOrCreate operations never overwrite an existing row; the provided
// defaults apply only at creation time. Implementations must make
// get-or-create atomic so that two concurrent creations of the same new
// entity resolve to a single row.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
