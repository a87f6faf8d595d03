package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"mercator-hq/wardgate/pkg/audit"
)

// MemoryStorage implements audit.Storage using an in-memory slice.
// This implementation is intended for testing only.
type MemoryStorage struct {
	entries []*audit.Entry
	nextID  int64
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{nextID: 1}
}

// Store appends a copy of entry, assigning an ID and timestamp when unset.
func (s *MemoryStorage) Store(ctx context.Context, entry *audit.Entry) error {
	if err := ctx.Err(); err != nil {
		return audit.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	entryCopy.ID = s.nextID
	s.nextID++
	if entryCopy.Timestamp.IsZero() {
		entryCopy.Timestamp = time.Now().UTC()
	}
	s.entries = append(s.entries, &entryCopy)
	return nil
}

// Query returns copies of the entries matching query.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Entry, error) {
	if query == nil {
		query = &audit.Query{}
	}

	s.mu.RLock()
	results := []*audit.Entry{}
	for _, entry := range s.entries {
		if query.Matches(entry) {
			entryCopy := *entry
			results = append(results, &entryCopy)
		}
	}
	s.mu.RUnlock()

	asc := query.SortOrder == "asc"
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Timestamp.Equal(b.Timestamp) {
			if asc {
				return a.ID < b.ID
			}
			return a.ID > b.ID
		}
		if asc {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.Timestamp.After(b.Timestamp)
	})

	start := query.Offset
	if start > len(results) {
		return []*audit.Entry{}, nil
	}
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns the number of entries matching query.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, entry := range s.entries {
		if query.Matches(entry) {
			count++
		}
	}
	return count, nil
}

// Entries returns a snapshot of every stored entry in insertion order.
func (s *MemoryStorage) Entries() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

// Close is a no-op.
func (s *MemoryStorage) Close() error {
	return nil
}

var _ audit.Storage = (*MemoryStorage)(nil)
