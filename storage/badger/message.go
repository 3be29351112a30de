package badger

import (
	"context"
	"encoding/binary"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// MessageRepository implements storage.MessageRepository for BadgerDB.
// Messages are keyed by their (chat id, message id) identity and carry a
// per-chat date index for timestamp-ordered scans.
type MessageRepository struct {
	backend *Backend
}

var _ storage.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(backend *Backend) (*MessageRepository, error) {
	return &MessageRepository{backend: backend}, nil
}

// Close releases resources. MessageRepository has no resources to release.
func (r *MessageRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *MessageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddMessages persists one or more messages in a single transaction.
// The whole batch fails together.
func (r *MessageRepository) AddMessages(ctx context.Context, msgs ...*core.Message) ([]*core.Message, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, msg := range msgs {
			if err := core.ValidateMessage(msg); err != nil {
				return err
			}
			msg.InsertedAt = time.Now().UTC()
			if err := writeMessage(tx, msg); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return msgs, err
}

// GetOrCreateMessage returns the message with the given (chat, id) identity,
// creating it if absent. Duplicate ingestion is a no-op, not an update.
func (r *MessageRepository) GetOrCreateMessage(ctx context.Context, msg *core.Message) (*core.Message, bool, error) {
	if err := core.ValidateMessage(msg); err != nil {
		return nil, false, err
	}

	var (
		result  *core.Message
		created bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMessageKey(msg.ChatId, msg.Id)
		existing, err := readMessage(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		msg.InsertedAt = time.Now().UTC()
		if err := writeMessage(tx, msg); err != nil {
			return err
		}
		result = msg
		created = true
		return tx.Commit()
	}, true)

	if err == badger.ErrConflict {
		existing, getErr := r.GetMessage(ctx, msg.ChatId, msg.Id)
		if getErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return result, created, err
}

// GetMessage retrieves a single message by chat id and message id.
func (r *MessageRepository) GetMessage(ctx context.Context, chatId, id int64) (*core.Message, error) {
	var result *core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMessage(tx, makeMessageKey(chatId, id))
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

// GetMessageIDs returns the ids of all messages stored for a chat.
func (r *MessageRepository) GetMessageIDs(ctx context.Context, chatId int64) ([]int64, error) {
	var ids []int64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMessageDatePrefix(chatId)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, parseMessageDateKey(iter.Item().Key()))
		}
		return nil
	}, false)
	return ids, err
}

// GetRecentMessages retrieves the chat's most recent messages by timestamp,
// returned in ascending timestamp order.
func (r *MessageRepository) GetRecentMessages(ctx context.Context, chatId int64, limit int) ([]*core.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makeMessageDatePrefix(chatId)
		// Seek past the last possible key for this chat, then walk backwards.
		startKey := makeMessageDateKey(chatId, time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC), -1)

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if len(key) < len(prefix) || !slices.Equal(key[:len(prefix)], prefix) {
				break
			}

			msg, err := readMessage(tx, makeMessageKey(chatId, parseMessageDateKey(key)))
			if err != nil {
				return err
			}
			if msg != nil {
				results = append(results, msg)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.Reverse(results)
	return results, nil
}

// CountMessagesAfter counts the chat's messages with a timestamp strictly
// newer than after.
func (r *MessageRepository) CountMessagesAfter(ctx context.Context, chatId int64, after time.Time) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMessageDatePrefix(chatId)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialMessageDateKey(chatId, after.Add(time.Microsecond))
		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// GetUnchunkedMessages retrieves the chat's messages with zero chunk
// associations, ordered by timestamp ascending.
func (r *MessageRepository) GetUnchunkedMessages(ctx context.Context, chatId int64) ([]*core.Message, error) {
	var results []*core.Message
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Collect the ids of all chunked messages in one index pass.
		chunked := make(map[int64]bool)
		memberOpts := badger.DefaultIteratorOptions
		memberOpts.Prefix = chunkMemberChatPrefix(chatId)
		memberOpts.PrefetchValues = false
		memberIter := tx.NewIterator(memberOpts)
		for memberIter.Rewind(); memberIter.Valid(); memberIter.Next() {
			key := memberIter.Item().Key()
			// Key layout: prefix ':' chatId messageId chunkId.
			msgId := int64(binary.BigEndian.Uint64(key[len(key)-16 : len(key)-8]))
			chunked[msgId] = true
		}
		memberIter.Close()

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMessageDatePrefix(chatId)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			msgId := parseMessageDateKey(iter.Item().Key())
			if chunked[msgId] {
				continue
			}
			msg, err := readMessage(tx, makeMessageKey(chatId, msgId))
			if err != nil {
				return err
			}
			if msg != nil {
				results = append(results, msg)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetChatIDs returns the ids of all chats that have at least one stored
// message.
func (r *MessageRepository) GetChatIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(messageDatePfx + ":")
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seen := make(map[int64]bool)
		prefixLen := len(messageDatePfx) + 1
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			chatId := int64(binary.BigEndian.Uint64(key[prefixLen : prefixLen+8]))
			if !seen[chatId] {
				seen[chatId] = true
				ids = append(ids, chatId)
			}
		}
		return nil
	}, false)
	return ids, err
}

// ResolveMessages prefetches the graph neighbors of the given messages:
// sender, chat, forward origins, reply target and media. Unresolvable
// optional relations are left nil.
func (r *MessageRepository) ResolveMessages(ctx context.Context, msgs ...*core.Message) ([]*core.ResolvedMessage, error) {
	resolved := make([]*core.ResolvedMessage, 0, len(msgs))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, msg := range msgs {
			rm := &core.ResolvedMessage{Message: msg}

			var err error
			if rm.From, err = readUser(tx, makeUserKey(msg.FromUserId)); err != nil {
				return err
			}
			if rm.Chat, err = readChat(tx, makeChatKey(msg.ChatId)); err != nil {
				return err
			}
			if msg.ForwardFromUserId != 0 {
				if rm.ForwardFromUser, err = readUser(tx, makeUserKey(msg.ForwardFromUserId)); err != nil {
					return err
				}
			}
			if msg.ForwardFromChatId != 0 {
				if rm.ForwardFromChat, err = readChat(tx, makeChatKey(msg.ForwardFromChatId)); err != nil {
					return err
				}
			}
			if msg.ReplyToMessageId != 0 {
				if rm.ReplyTo, err = readMessage(tx, makeMessageKey(msg.ChatId, msg.ReplyToMessageId)); err != nil {
					return err
				}
				if rm.ReplyTo != nil {
					if rm.ReplyFrom, err = readUser(tx, makeUserKey(rm.ReplyTo.FromUserId)); err != nil {
						return err
					}
				}
			}
			if msg.MediaId != "" {
				if rm.Media, err = readMedia(tx, makeMediaKey(msg.MediaId)); err != nil {
					return err
				}
			}

			resolved = append(resolved, rm)
		}
		return nil
	}, false)
	return resolved, err
}

// Helper methods

// writeMessage stores the primary record and its date index entry.
func writeMessage(tx *badger.Txn, msg *core.Message) error {
	key := makeMessageKey(msg.ChatId, msg.Id)
	if err := tx.Set(key, storage.MarshalMessage(msg)); err != nil {
		return err
	}
	dateKey := makeMessageDateKey(msg.ChatId, msg.Date, msg.Id)
	return tx.Set(dateKey, nil)
}

// readMessage reads a message from the transaction. Returns nil if absent.
func readMessage(tx *badger.Txn, key []byte) (*core.Message, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var msg *core.Message
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		msg, unmarshalErr = storage.UnmarshalMessage(val)
		return unmarshalErr
	})
	return msg, err
}
