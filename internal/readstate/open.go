package readstate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nhle/clubhub/internal/model"
	"github.com/nhle/clubhub/internal/store"
)

// Open builds the Store selected by cfg.Driver. key overrides cfg.Key
// when non-empty (used to scope the set to the signed-in principal).
func Open(ctx context.Context, cfg model.ReadStateConfig, key string) (Store, error) {
	if key == "" {
		key = cfg.Key
	}
	if key == "" {
		key = model.DefaultReadStateKey
	}

	switch cfg.Driver {
	case model.ReadStateMemory:
		return NewMemoryStore(), nil

	case model.ReadStateRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, key)

	case model.ReadStateSQLite, "":
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
			}
		}
		kv, err := store.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(kv, key), nil

	default:
		return nil, fmt.Errorf("unknown read-state driver %q", cfg.Driver)
	}
}

// ScopedKey appends the principal to base so that several accounts on
// one machine keep separate sets.
func ScopedKey(base, principal string) string {
	if principal == "" {
		return base
	}
	return base + ":" + principal
}
