package readstate

import (
	"context"
	"sync"
)

// MemoryStore keeps the read-state in process memory. It still stores
// the JSON encoding so it behaves like the durable stores.
type MemoryStore struct {
	mu  sync.Mutex
	raw string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decodeIDs(s.raw)
}

func (s *MemoryStore) Add(ctx context.Context, id string) error {
	return s.AddAll(ctx, []string{id})
}

func (s *MemoryStore) AddAll(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := decodeIDs(s.raw)
	if err != nil {
		return err
	}
	for _, id := range ids {
		set[id] = true
	}
	raw, err := encodeIDs(set)
	if err != nil {
		return err
	}
	s.raw = raw
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = ""
	return nil
}

func (s *MemoryStore) Close() error { return nil }
