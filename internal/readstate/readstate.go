// Package readstate persists the set of notification ids the user has
// read locally. Every implementation stores the set under a single key
// as a JSON array of strings.
package readstate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Store is a durable set of read notification ids.
type Store interface {
	// Load returns the current set. A missing key is an empty set.
	Load(ctx context.Context) (map[string]bool, error)

	// Add inserts a single id.
	Add(ctx context.Context, id string) error

	// AddAll inserts several ids in one write.
	AddAll(ctx context.Context, ids []string) error

	// Clear removes the key entirely.
	Clear(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}

// decodeIDs parses the stored JSON array. An empty value is an empty set.
func decodeIDs(raw string) (map[string]bool, error) {
	set := make(map[string]bool)
	if raw == "" {
		return set, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decoding read-state: %w", err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// encodeIDs renders the set as a sorted JSON array so identical sets
// always serialize identically.
func encodeIDs(set map[string]bool) (string, error) {
	ids := make([]string, 0, len(set))
	for id, ok := range set {
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encoding read-state: %w", err)
	}
	return string(data), nil
}
