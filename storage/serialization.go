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


package storage

import (
	"github.com/viannik/memoria-tg-bot/core"
)

// MarshalChat serializes a Chat to bytes.
func MarshalChat(chat *core.Chat) []byte {
	buf := make([]byte, core.ChatMUS.Size(*chat))
	core.ChatMUS.Marshal(*chat, buf)
	return buf
}

// UnmarshalChat deserializes a Chat from bytes.
func UnmarshalChat(data []byte) (*core.Chat, error) {
	chat, _, err := core.ChatMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// MarshalUser serializes a User to bytes.
func MarshalUser(user *core.User) []byte {
	buf := make([]byte, core.UserMUS.Size(*user))
	core.UserMUS.Marshal(*user, buf)
	return buf
}

// UnmarshalUser deserializes a User from bytes.
func UnmarshalUser(data []byte) (*core.User, error) {
	user, _, err := core.UserMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// MarshalMedia serializes a Media to bytes.
func MarshalMedia(media *core.Media) []byte {
	buf := make([]byte, core.MediaMUS.Size(*media))
	core.MediaMUS.Marshal(*media, buf)
	return buf
}

// UnmarshalMedia deserializes a Media from bytes.
func UnmarshalMedia(data []byte) (*core.Media, error) {
	media, _, err := core.MediaMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &media, nil
}

// MarshalMessage serializes a Message to bytes.
func MarshalMessage(msg *core.Message) []byte {
	buf := make([]byte, core.MessageMUS.Size(*msg))
	core.MessageMUS.Marshal(*msg, buf)
	return buf
}

// UnmarshalMessage deserializes a Message from bytes.
func UnmarshalMessage(data []byte) (*core.Message, error) {
	msg, _, err := core.MessageMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarshalChunk serializes a ChunkEmbedding to bytes.
func MarshalChunk(chunk *core.ChunkEmbedding) []byte {
	buf := make([]byte, core.ChunkEmbeddingMUS.Size(*chunk))
	core.ChunkEmbeddingMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a ChunkEmbedding from bytes.
func UnmarshalChunk(data []byte) (*core.ChunkEmbedding, error) {
	chunk, _, err := core.ChunkEmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}
