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


package memoria

import (
	"io"
	"log/slog"

	"github.com/viannik/memoria-tg-bot/ai"
	"github.com/viannik/memoria-tg-bot/ai/openai"
	"github.com/viannik/memoria-tg-bot/ingestion"
	"github.com/viannik/memoria-tg-bot/reembed"
	"github.com/viannik/memoria-tg-bot/search"
	"github.com/viannik/memoria-tg-bot/storage"
	"github.com/viannik/memoria-tg-bot/storage/badger"
	"github.com/viannik/memoria-tg-bot/telegram"
)

// Store bundles the storage backend, the entity repositories and the
// embedding service behind one handle, with factories for the ingestion,
// import, search and reembedding pipelines that run over them.
type Store struct {
	backend  *badger.Backend
	users    storage.UserRepository
	chats    storage.ChatRepository
	media    storage.MediaRepository
	messages storage.MessageRepository
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig *ai.Config
	embedder ai.Embedder
	inMemory bool
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) StoreOption {
	return func(o *storeOptions) {
		o.aiConfig = config
	}
}

// WithEmbedder injects a prebuilt embedder instead of constructing one
// from the AI configuration. Used by tests.
func WithEmbedder(embedder ai.Embedder) StoreOption {
	return func(o *storeOptions) {
		o.embedder = embedder
	}
}

// WithInMemory opens the backend without a data directory, discarding all
// data on close.
func WithInMemory() StoreOption {
	return func(o *storeOptions) {
		o.inMemory = true
	}
}

// NewStore opens the database at filePath and wires up all repositories.
func NewStore(filePath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	users, err := badger.NewUserRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	chats, err := badger.NewChatRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	media, err := badger.NewMediaRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	messages, err := badger.NewMessageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	chunks, err := badger.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	return &Store{
		backend:  backend,
		users:    users,
		chats:    chats,
		media:    media,
		messages: messages,
		chunks:   chunks,
		embedder: embedder,
		logger:   slog.Default(),
	}, nil
}

// Close releases the backend. All repositories share the backend, so one
// close covers them.
func (s *Store) Close() error {
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Store) UserRepository() storage.UserRepository {
	return s.users
}

func (s *Store) ChatRepository() storage.ChatRepository {
	return s.chats
}

func (s *Store) MediaRepository() storage.MediaRepository {
	return s.media
}

func (s *Store) MessageRepository() storage.MessageRepository {
	return s.messages
}

func (s *Store) ChunkRepository() storage.ChunkRepository {
	return s.chunks
}

func (s *Store) Embedder() ai.Embedder {
	return s.embedder
}

// NewChunker creates a chunker over the store's repositories. The store's
// embedder is attached unless the options override it.
func (s *Store) NewChunker(opts ...ingestion.Option) (*ingestion.Chunker, error) {
	combined := append([]ingestion.Option{ingestion.WithEmbedder(s.embedder)}, opts...)
	return ingestion.NewChunker(s.messages, s.chunks, combined...)
}

// NewProcessor creates a live-message processor backed by the given chunker.
func (s *Store) NewProcessor(chunker *ingestion.Chunker, opts ...ingestion.ProcessorOption) (*ingestion.Processor, error) {
	return ingestion.NewProcessor(s.users, s.chats, s.media, s.messages, chunker, opts...)
}

// NewImporter creates a bulk importer for chat history export files.
func (s *Store) NewImporter(opts ...telegram.ImporterOption) (*telegram.Importer, error) {
	return telegram.NewImporter(s.users, s.chats, s.messages, opts...)
}

// NewSearcher creates a ranked retrieval searcher over the stored chunks.
func (s *Store) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.chunks, s.embedder, opts...)
}

// NewReembedder creates a pipeline that recomputes every chunk vector.
func (s *Store) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(s.chunks, s.embedder, config, progress)
}
