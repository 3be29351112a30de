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

import "fmt"

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - ChatId must be set (owning chat is mandatory)
//   - FromUserId must be set (sender is mandatory)
//   - Date must be set
//
// NOT validated (optional relations, resolved lazily):
//   - MediaId, ReplyToMessageId, ForwardFrom* (absent targets are legal)
//   - Text (service messages may carry only media)
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if msg.ChatId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrMissingChat)
	}

	if msg.FromUserId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrMissingSender)
	}

	if msg.Date.IsZero() {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrMissingDate)
	}

	return nil
}

// ValidateMedia validates a Media according to domain rules.
//
// Validation rules:
//   - FileUniqueId must not be empty (it is the primary key)
func ValidateMedia(media *Media) error {
	if media == nil {
		return fmt.Errorf("%w: media is nil", ErrInvalidMedia)
	}

	if media.FileUniqueId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMedia, ErrEmptyMediaToken)
	}

	return nil
}

// ValidateChunk validates a ChunkEmbedding according to domain rules.
//
// Validation rules:
//   - at least one member message
//   - FromTime <= ToTime
//
// NOT validated (populated later):
//   - Vector (nil until the embedding collaborator computes it)
//   - Id (0 is valid before the database sequence assigns one)
func ValidateChunk(chunk *ChunkEmbedding) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if len(chunk.MessageIds) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunk)
	}

	if chunk.FromTime.After(chunk.ToTime) {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrInvalidTimeRange)
	}

	return nil
}
