package mergekit

import (
	"context"
	"encoding/json"
)

// Record is a generic structured (JSON-like) value persisted by a RecordStore.
type Record map[string]any

// Collections used by the merge kit.
const (
	CollectionPolicy   = "policy"
	CollectionConflict = "conflict"
	CollectionTreeDiff = "tree-diff"
)

// RecordStore provides persistence for policies, conflict records, and diff
// results. Implementations can use any storage backend (in-memory, SQLite,
// PostgreSQL, etc.). The merge kit assumes only exact-key lookup and optional
// equality-filtered scans; no transactions or secondary indexes.
type RecordStore interface {
	// Get retrieves the record stored under (collection, key).
	// The boolean reports whether the record exists.
	Get(ctx context.Context, collection, key string) (Record, bool, error)

	// Put stores a record under (collection, key), replacing any existing record.
	Put(ctx context.Context, collection, key string, record Record) error

	// Delete removes the record under (collection, key).
	// Deleting a missing record is not an error.
	Delete(ctx context.Context, collection, key string) error

	// Find returns all records in a collection matching the filter.
	// A nil filter matches everything; filter entries are compared by equality.
	Find(ctx context.Context, collection string, filter map[string]any) ([]Record, error)

	// Close closes the store and releases resources
	Close() error
}

// MatchesFilter reports whether every filter entry equals the corresponding
// record field. Values are compared by canonical JSON encoding so that
// differently typed representations of the same number compare equal.
func MatchesFilter(record Record, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := record[key]
		if !ok {
			return false
		}
		if !jsonValueEqual(got, want) {
			return false
		}
	}
	return true
}

func jsonValueEqual(a, b any) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}

// recordOf converts a typed value into a Record via its JSON form.
func recordOf(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// decodeRecord converts a Record back into a typed value via its JSON form.
func decodeRecord(record Record, v any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
