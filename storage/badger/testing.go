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


package badger

import "github.com/viannik/memoria-tg-bot/storage"

// MemoryRepositories bundles in-memory repositories for testing.
type MemoryRepositories struct {
	Users    storage.UserRepository
	Chats    storage.ChatRepository
	Media    storage.MediaRepository
	Messages storage.MessageRepository
	Chunks   storage.ChunkRepository

	backend *Backend
}

// Close closes all repositories and the backing store.
func (m *MemoryRepositories) Close() error {
	m.Chunks.Close()
	m.Messages.Close()
	m.Media.Close()
	m.Chats.Close()
	m.Users.Close()
	return m.backend.Close()
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must call Close when done.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	users, err := NewUserRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	chats, err := NewChatRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	media, err := NewMediaRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	messages, err := NewMessageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	chunks, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Users:    users,
		Chats:    chats,
		Media:    media,
		Messages: messages,
		Chunks:   chunks,
		backend:  backend,
	}, nil
}
