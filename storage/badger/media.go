package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// MediaRepository implements storage.MediaRepository for BadgerDB.
type MediaRepository struct {
	backend *Backend
}

var _ storage.MediaRepository = (*MediaRepository)(nil)

// NewMediaRepository creates a new MediaRepository.
func NewMediaRepository(backend *Backend) (*MediaRepository, error) {
	return &MediaRepository{backend: backend}, nil
}

// Close releases resources. MediaRepository has no resources to release.
func (r *MediaRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *MediaRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetOrCreateMedia returns the stored media row for the given file token,
// creating it from the provided defaults if absent. The token is stable
// across re-imports, so repeated ingestion converges on one row.
func (r *MediaRepository) GetOrCreateMedia(ctx context.Context, media *core.Media) (*core.Media, bool, error) {
	if err := core.ValidateMedia(media); err != nil {
		return nil, false, err
	}

	var (
		result  *core.Media
		created bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMediaKey(media.FileUniqueId)
		existing, err := readMedia(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		media.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalMedia(media)); err != nil {
			return err
		}
		result = media
		created = true
		return tx.Commit()
	}, true)

	if err == badger.ErrConflict {
		existing, getErr := r.GetMedia(ctx, media.FileUniqueId)
		if getErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return result, created, err
}

// GetMedia retrieves a single media row by its file token.
func (r *MediaRepository) GetMedia(ctx context.Context, fileUniqueId string) (*core.Media, error) {
	var result *core.Media
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readMedia(tx, makeMediaKey(fileUniqueId))
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

// readMedia reads a media row from the transaction. Returns nil if absent.
func readMedia(tx *badger.Txn, key []byte) (*core.Media, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var media *core.Media
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		media, unmarshalErr = storage.UnmarshalMedia(val)
		return unmarshalErr
	})
	return media, err
}
