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
	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidChunk indicates a ChunkEmbedding failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidMedia indicates a Media failed validation.
	ErrInvalidMedia = errors.New("invalid media")

	// ErrMissingChat indicates the owning chat id is absent.
	ErrMissingChat = errors.New("chat id is required")

	// ErrMissingSender indicates the sending user id is absent.
	ErrMissingSender = errors.New("sender id is required")

	// ErrMissingDate indicates the message timestamp is absent.
	ErrMissingDate = errors.New("message date is required")

	// ErrEmptyMediaToken indicates the media file token is empty.
	ErrEmptyMediaToken = errors.New("media file token cannot be empty")

	// ErrEmptyChunk indicates a chunk with no member messages.
	ErrEmptyChunk = errors.New("chunk must have at least one member message")

	// ErrInvalidTimeRange indicates a chunk whose from_time is after its to_time.
	ErrInvalidTimeRange = errors.New("chunk from_time must not be after to_time")
)
