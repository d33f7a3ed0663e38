package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// StorageError wraps a failure to read or write the history medium.
type StorageError struct {
	Op      string
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s history %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

var errClosed = errors.New("store is closed")

// MemoryStore is a concurrency-safe in-memory history medium. It does not
// survive restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []weather.HistoryEntry
	closed  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored entries in insertion order.
func (s *MemoryStore) Load(ctx context.Context) ([]weather.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, &StorageError{Op: "load", Backend: "memory", Err: errClosed}
	}
	out := make([]weather.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// Save replaces the stored entries.
func (s *MemoryStore) Save(ctx context.Context, entries []weather.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &StorageError{Op: "save", Backend: "memory", Err: errClosed}
	}
	s.entries = make([]weather.HistoryEntry, len(entries))
	copy(s.entries, entries)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
