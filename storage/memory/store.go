// Package memory provides an in-memory implementation of the merge-kit
// RecordStore, suitable for embedding and tests.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/c0deZ3R0/go-merge-kit/mergekit"
)

// ErrStoreClosed is returned by all operations after Close.
var ErrStoreClosed = errors.New("store is closed")

// Store keeps records in per-collection maps guarded by a single RWMutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]mergekit.Record
	closed      bool
}

var _ mergekit.RecordStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]mergekit.Record)}
}

// Get retrieves the record stored under (collection, key).
func (s *Store) Get(ctx context.Context, collection, key string) (mergekit.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false, ErrStoreClosed
	}

	record, ok := s.collections[collection][key]
	if !ok {
		return nil, false, nil
	}
	// Copy so callers cannot mutate stored state.
	return maps.Clone(record), true, nil
}

// Put stores a record under (collection, key), replacing any existing record.
func (s *Store) Put(ctx context.Context, collection, key string, record mergekit.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]mergekit.Record)
	}
	s.collections[collection][key] = maps.Clone(record)
	return nil
}

// Delete removes the record under (collection, key).
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	delete(s.collections[collection], key)
	return nil
}

// Find returns all records in a collection matching the equality filter.
func (s *Store) Find(ctx context.Context, collection string, filter map[string]any) ([]mergekit.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var results []mergekit.Record
	for _, record := range s.collections[collection] {
		if filter == nil || mergekit.MatchesFilter(record, filter) {
			results = append(results, maps.Clone(record))
		}
	}
	return results, nil
}

// Close marks the store closed. Subsequent operations fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.collections = nil
	return nil
}
