package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by Get when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// UpdateFunc receives the current value ("" and exists=false when the key
// is absent) and returns the value to store.
type UpdateFunc func(current string, exists bool) (string, error)

// Store defines the local key-value persistence used for client state
// such as the read-notification set.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
	Close() error
}
