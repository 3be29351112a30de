package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
// Chunk member associations are append-only: written once at chunk creation
// and removed only by whole-chunk deletion.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunk persists a chunk and its member associations in a single
// transaction.
func (r *ChunkRepository) AddChunk(ctx context.Context, chunk *core.ChunkEmbedding) (*core.ChunkEmbedding, error) {
	if err := core.ValidateChunk(chunk); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if chunk.Id == 0 {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			chunk.Id = core.ID(nextID)
		}

		chunk.InsertedAt = time.Now().UTC()

		// Store primary record
		key := makeChunkKey(chunk.Id)
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}

		// Update date index
		dateKey := makeChunkDateKey(chunk.ChatId, chunk.ToTime, chunk.Id)
		if err := tx.Set(dateKey, nil); err != nil {
			return err
		}

		// Update member indexes
		return writeChunkMemberIndexes(tx, chunk)
	}, true)

	return chunk, err
}

// GetChunk retrieves a single chunk by id.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.ChunkEmbedding, error) {
	var result *core.ChunkEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readChunk(tx, makeChunkKey(id))
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

// GetChunksByChat retrieves all chunks of a chat ordered by to_time ascending.
func (r *ChunkRepository) GetChunksByChat(ctx context.Context, chatId int64) ([]*core.ChunkEmbedding, error) {
	var results []*core.ChunkEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkDatePrefix(chatId)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			chunk, err := readChunk(tx, makeChunkKey(parseChunkIndexKey(iter.Item().Key())))
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetLatestChunk retrieves the chat's most recent chunk by to_time.
func (r *ChunkRepository) GetLatestChunk(ctx context.Context, chatId int64) (*core.ChunkEmbedding, error) {
	var result *core.ChunkEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		prefix := makeChunkDatePrefix(chatId)
		startKey := makeChunkDateKey(chatId, time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC), core.ID(18446744073709551615))

		iter.Seek(startKey)
		if !iter.Valid() {
			return storage.ErrNotFound
		}
		key := iter.Item().Key()
		if len(key) < len(prefix) || !slices.Equal(key[:len(prefix)], prefix) {
			return storage.ErrNotFound
		}

		var err error
		result, err = readChunk(tx, makeChunkKey(parseChunkIndexKey(key)))
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

// GetChunksByUser returns the ids of chunks whose member users include the
// given user.
func (r *ChunkRepository) GetChunksByUser(ctx context.Context, userId int64) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkUserPrefix(userId)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			ids = append(ids, parseChunkIndexKey(iter.Item().Key()))
		}
		return nil
	}, false)
	return ids, err
}

// GetAllChunks retrieves every stored chunk.
func (r *ChunkRepository) GetAllChunks(ctx context.Context) ([]*core.ChunkEmbedding, error) {
	var results []*core.ChunkEmbedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.ChunkEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk != nil {
				results = append(results, chunk)
			}
		}
		return nil
	}, false)
	return results, err
}

// UpdateChunkVector stores the embedding vector for a chunk. This is the
// only permitted mutation of an existing chunk.
func (r *ChunkRepository) UpdateChunkVector(ctx context.Context, id core.ID, vector []float32) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(id)
		chunk, err := readChunk(tx, key)
		if err != nil {
			return err
		}
		if chunk == nil {
			return storage.ErrNotFound
		}

		chunk.Vector = vector
		if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteChunk removes a chunk and all its member associations.
func (r *ChunkRepository) DeleteChunk(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeChunkKey(id)
		chunk, err := readChunk(tx, key)
		if err != nil {
			return err
		}
		if chunk == nil {
			return storage.ErrNotFound
		}

		// Delete from date index
		dateKey := makeChunkDateKey(chunk.ChatId, chunk.ToTime, chunk.Id)
		if err := tx.Delete(dateKey); err != nil {
			return err
		}

		// Delete member indexes
		for _, msgId := range chunk.MessageIds {
			if err := tx.Delete(makeChunkMemberKey(chunk.ChatId, msgId, chunk.Id)); err != nil {
				return err
			}
		}
		for _, userId := range chunk.UserIds {
			if err := tx.Delete(makeChunkUserKey(userId, chunk.Id)); err != nil {
				return err
			}
		}
		for _, token := range chunk.MediaIds {
			if err := tx.Delete(makeChunkMediaKey(token, chunk.Id)); err != nil {
				return err
			}
		}

		// Delete primary record
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// FindSimilar finds chunks similar to the given vector within the scope.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int, scope core.ChunkScope) ([]*core.ChunkMatch, error) {
	var results []*core.ChunkMatch

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.ChunkEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || !scope.Matches(chunk) {
				continue
			}

			// Skip chunks without embeddings
			if len(chunk.Vector) == 0 {
				continue
			}

			// Cosine similarity (dot product for normalized vectors)
			similarity := dotProduct(vector, chunk.Vector)
			if similarity >= minSimilarity {
				results = append(results, &core.ChunkMatch{
					Chunk: chunk,
					Score: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ChunkMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// Helper methods

// writeChunkMemberIndexes records the chunk's message, user and media
// associations and commits the transaction.
func writeChunkMemberIndexes(tx *badger.Txn, chunk *core.ChunkEmbedding) error {
	for _, msgId := range chunk.MessageIds {
		if err := tx.Set(makeChunkMemberKey(chunk.ChatId, msgId, chunk.Id), nil); err != nil {
			return err
		}
	}
	for _, userId := range chunk.UserIds {
		if err := tx.Set(makeChunkUserKey(userId, chunk.Id), nil); err != nil {
			return err
		}
	}
	for _, token := range chunk.MediaIds {
		if err := tx.Set(makeChunkMediaKey(token, chunk.Id), nil); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// readChunk reads a chunk from the transaction. Returns nil if absent.
func readChunk(tx *badger.Txn, key []byte) (*core.ChunkEmbedding, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.ChunkEmbedding
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chunk, unmarshalErr = storage.UnmarshalChunk(val)
		return unmarshalErr
	})
	return chunk, err
}
