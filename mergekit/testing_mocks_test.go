package mergekit

import (
	"context"
	"maps"
)

// mockStore is a simple in-package test double for RecordStore with
// per-operation failure injection.
type mockStore struct {
	collections map[string]map[string]Record

	getErr    error
	putErr    error
	deleteErr error
	findErr   error

	puts int
}

func newMockStore() *mockStore {
	return &mockStore{collections: make(map[string]map[string]Record)}
}

func (m *mockStore) Get(ctx context.Context, collection, key string) (Record, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	record, ok := m.collections[collection][key]
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(record), true, nil
}

func (m *mockStore) Put(ctx context.Context, collection, key string, record Record) error {
	if m.putErr != nil {
		return m.putErr
	}
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]Record)
	}
	m.collections[collection][key] = maps.Clone(record)
	m.puts++
	return nil
}

func (m *mockStore) Delete(ctx context.Context, collection, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.collections[collection], key)
	return nil
}

func (m *mockStore) Find(ctx context.Context, collection string, filter map[string]any) ([]Record, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var results []Record
	for _, record := range m.collections[collection] {
		if filter == nil || MatchesFilter(record, filter) {
			results = append(results, maps.Clone(record))
		}
	}
	return results, nil
}

func (m *mockStore) Close() error { return nil }
