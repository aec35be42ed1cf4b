// Package memory is an ephemeral, process-local cache backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mfenderov/jsonld/internal/cache"
)

// Store keeps entries in a map for the life of the process.
type Store struct {
	mu      sync.RWMutex
	entries map[string]cache.Entry
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		entries: make(map[string]cache.Entry),
		now:     time.Now,
	}
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (cache.Entry, bool, error) {
	if err := cache.ValidateKey(key); err != nil {
		return cache.Entry{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	return entry, ok, nil
}

// Put implements cache.Store.
func (s *Store) Put(ctx context.Context, key, document string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = cache.Entry{Document: document, BuiltAt: s.now()}
	return nil
}

// IsStale implements cache.Store.
func (s *Store) IsStale(ctx context.Context, key string, modifiedAt time.Time) (bool, error) {
	return cache.IsStale(ctx, s, key, modifiedAt)
}

// Invalidate implements cache.Store.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	if err := cache.ValidateKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
