package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/viannik/memoria-tg-bot/core"
	"github.com/viannik/memoria-tg-bot/storage"
)

// UserRepository implements storage.UserRepository for BadgerDB.
type UserRepository struct {
	backend *Backend
}

var _ storage.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(backend *Backend) (*UserRepository, error) {
	return &UserRepository{backend: backend}, nil
}

// Close releases resources. UserRepository has no resources to release.
func (r *UserRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *UserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// GetOrCreateUser returns the stored user with the given id, creating it
// from the provided defaults if absent. Existing rows are never overwritten.
func (r *UserRepository) GetOrCreateUser(ctx context.Context, user *core.User) (*core.User, bool, error) {
	var (
		result  *core.User
		created bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeUserKey(user.Id)
		existing, err := readUser(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		user.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalUser(user)); err != nil {
			return err
		}
		result = user
		created = true
		return tx.Commit()
	}, true)

	if err == badger.ErrConflict {
		// A concurrent writer created the row; read it back.
		existing, getErr := r.GetUser(ctx, user.Id)
		if getErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return result, created, err
}

// GetUser retrieves a single user by id.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*core.User, error) {
	var result *core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readUser(tx, makeUserKey(id))
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

// GetUsers retrieves multiple users by their ids. Missing users are skipped.
func (r *UserRepository) GetUsers(ctx context.Context, ids ...int64) ([]*core.User, error) {
	var result []*core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			user, err := readUser(tx, makeUserKey(id))
			if err != nil {
				return err
			}
			if user != nil {
				result = append(result, user)
			}
		}
		return nil
	}, false)
	return result, err
}

// readUser reads a user from the transaction. Returns nil if the key is absent.
func readUser(tx *badger.Txn, key []byte) (*core.User, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var user *core.User
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		user, unmarshalErr = storage.UnmarshalUser(val)
		return unmarshalErr
	})
	return user, err
}
