package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// ChatRepository implements storage.ChatRepository for BadgerDB.
type ChatRepository struct {
	backend *Backend
}

var _ storage.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(backend *Backend) (*ChatRepository, error) {
	return &ChatRepository{backend: backend}, nil
}

// Close releases resources. ChatRepository has no resources to release.
func (r *ChatRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChatRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetOrCreateChat returns the stored chat with the given id, creating it
// from the provided defaults if absent. Existing rows are never overwritten.
func (r *ChatRepository) GetOrCreateChat(ctx context.Context, chat *core.Chat) (*core.Chat, bool, error) {
	var (
		result  *core.Chat
		created bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChatKey(chat.Id)
		existing, err := readChat(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		chat.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalChat(chat)); err != nil {
			return err
		}
		result = chat
		created = true
		return tx.Commit()
	}, true)

	if err == badger.ErrConflict {
		existing, getErr := r.GetChat(ctx, chat.Id)
		if getErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return result, created, err
}

// GetChat retrieves a single chat by id.
func (r *ChatRepository) GetChat(ctx context.Context, id int64) (*core.Chat, error) {
	var result *core.Chat
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChat(tx, makeChatKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// readChat reads a chat from the transaction. Returns nil if the key is absent.
func readChat(tx *badger.Txn, key []byte) (*core.Chat, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chat *core.Chat
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chat, unmarshalErr = storage.UnmarshalChat(val)
		return unmarshalErr
	})
	return chat, err
}
