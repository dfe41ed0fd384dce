package readstate

import (
	"context"
	"errors"

	"github.com/nhle/clubhub/internal/store"
)

// SQLiteStore keeps the read-state in the local SQLite key-value store.
type SQLiteStore struct {
	kv  store.Store
	key string
}

// NewSQLiteStore wraps an open key-value store. key names the row that
// holds the JSON array.
func NewSQLiteStore(kv store.Store, key string) *SQLiteStore {
	return &SQLiteStore{kv: kv, key: key}
}

func (s *SQLiteStore) Load(ctx context.Context) (map[string]bool, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, store.ErrKeyNotFound) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeIDs(raw)
}

func (s *SQLiteStore) Add(ctx context.Context, id string) error {
	return s.AddAll(ctx, []string{id})
}

func (s *SQLiteStore) AddAll(ctx context.Context, ids []string) error {
	return s.kv.Update(ctx, s.key, func(current string, _ bool) (string, error) {
		set, err := decodeIDs(current)
		if err != nil {
			return "", err
		}
		for _, id := range ids {
			set[id] = true
		}
		return encodeIDs(set)
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, s.key)
}

func (s *SQLiteStore) Close() error {
	return s.kv.Close()
}
