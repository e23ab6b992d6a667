// Package sqlite provides a SQLite implementation of the merge-kit RecordStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	kiterrors "github.com/c0deZ3R0/go-merge-kit/errors"
	"github.com/c0deZ3R0/go-merge-kit/logging"
	"github.com/c0deZ3R0/go-merge-kit/mergekit"

	// Go SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// Operation constants for consistent error reporting
const (
	opGet    = kiterrors.OpGet
	opPut    = kiterrors.OpPut
	opDelete = kiterrors.OpDelete
	opFind   = kiterrors.OpFind
)

const componentName = "storage/sqlite"

// ErrStoreClosed is returned by all operations after Close.
var ErrStoreClosed = errors.New("store is closed")

// Config holds configuration options for the RecordStore.
//
// Production-ready defaults are applied by DefaultConfig() including:
//   - WAL mode enabled for better concurrency
//   - Connection pool with 25 max open, 5 max idle connections
//   - Connection lifetimes of 1 hour max, 5 minutes max idle
type Config struct {
	// DataSourceName is the connection string for the SQLite database.
	// Example: "file:records.db?_journal_mode=WAL"
	DataSourceName string

	// EnableWAL enables Write-Ahead Logging mode for better concurrency.
	// When true, automatically appends "?_journal_mode=WAL" to DataSourceName.
	EnableWAL bool

	// TableName is the name of the table to store records.
	// Defaults to "records" if empty.
	TableName string

	// Connection pool settings for production workloads.
	// Defaults: MaxOpen=25, MaxIdle=5, Lifetime=1h, IdleTime=5m
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// setDefaults applies default values to the config
func (c *Config) setDefaults() {
	if c.TableName == "" {
		c.TableName = "records"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = time.Hour
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.EnableWAL {
		if !strings.Contains(c.DataSourceName, "?_journal_mode=") {
			c.DataSourceName += "?_journal_mode=WAL"
		}
	}
}

// DefaultConfig returns a Config with production-ready defaults for SQLite.
func DefaultConfig(dataSourceName string) *Config {
	config := &Config{
		DataSourceName: dataSourceName,
		EnableWAL:      true,
	}
	config.setDefaults()
	return config
}

// NewWithDataSource is a convenience constructor
func NewWithDataSource(dataSourceName string) (*Store, error) {
	return New(DefaultConfig(dataSourceName))
}

// Store implements the mergekit.RecordStore interface for SQLite. Records are
// kept as JSON payloads keyed by (collection, key).
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	closed    bool
	tableName string
}

// Compile-time check to ensure Store satisfies the RecordStore interface
var _ mergekit.RecordStore = (*Store)(nil)

// New creates a new Store from a Config.
func New(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	config.setDefaults()

	if config.DataSourceName == "" {
		return nil, fmt.Errorf("DataSourceName is required")
	}

	logger := logging.WithComponent(logging.Component(componentName))
	logger.InfoContext(context.Background(), "Opening SQLite database",
		slog.String("data_source", config.DataSourceName),
		slog.Bool("wal_enabled", config.EnableWAL),
	)

	db, err := sql.Open("sqlite3", config.DataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to sqlite database: %w", err)
	}

	store := &Store{
		db:        db,
		tableName: config.TableName,
	}

	if err := store.setupSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup database schema: %w", err)
	}

	logger.InfoContext(context.Background(), "SQLite RecordStore successfully initialized",
		slog.String("table_name", config.TableName),
	)
	return store, nil
}

// setupSchema creates the records table if it doesn't exist.
func (s *Store) setupSchema() error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS %[1]s (
        collection  TEXT NOT NULL,
        key         TEXT NOT NULL,
        data        TEXT NOT NULL,
        updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (collection, key)
    );
    CREATE INDEX IF NOT EXISTS idx_%[1]s_collection ON %[1]s (collection);
    `, s.tableName)
	_, err := s.db.Exec(query)
	return err
}

// Get retrieves the record stored under (collection, key).
func (s *Store) Get(ctx context.Context, collection, key string) (mergekit.Record, bool, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, false, ErrStoreClosed
	}
	s.mu.RUnlock()

	query := fmt.Sprintf(`SELECT data FROM %s WHERE collection = ? AND key = ?`, s.tableName)

	var data string
	err := s.db.QueryRowContext(ctx, query, collection, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kiterrors.WrapStorage(err, opGet, componentName)
	}

	var record mergekit.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, false, kiterrors.WrapStorage(fmt.Errorf("failed to decode record payload: %w", err), opGet, componentName)
	}
	return record, true, nil
}

// Put stores a record under (collection, key), replacing any existing record.
func (s *Store) Put(ctx context.Context, collection, key string, record mergekit.Record) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	data, err := json.Marshal(record)
	if err != nil {
		return kiterrors.WrapStorage(fmt.Errorf("failed to encode record payload: %w", err), opPut, componentName)
	}

	query := fmt.Sprintf(`
    INSERT INTO %s (collection, key, data) VALUES (?, ?, ?)
    ON CONFLICT (collection, key)
    DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, collection, key, string(data)); err != nil {
		return kiterrors.WrapStorage(err, opPut, componentName)
	}
	return nil
}

// Delete removes the record under (collection, key).
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	query := fmt.Sprintf(`DELETE FROM %s WHERE collection = ? AND key = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, collection, key); err != nil {
		return kiterrors.WrapStorage(err, opDelete, componentName)
	}
	return nil
}

// Find returns all records in a collection matching the equality filter.
// Filtering happens in Go after the collection scan; the store assumes no
// indexes beyond exact-key lookup.
func (s *Store) Find(ctx context.Context, collection string, filter map[string]any) ([]mergekit.Record, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	s.mu.RUnlock()

	query := fmt.Sprintf(`SELECT data FROM %s WHERE collection = ? ORDER BY key ASC`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, kiterrors.WrapStorage(err, opFind, componentName)
	}
	defer rows.Close()

	var results []mergekit.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, kiterrors.WrapStorage(fmt.Errorf("failed to scan record row: %w", err), opFind, componentName)
		}

		var record mergekit.Record
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, kiterrors.WrapStorage(fmt.Errorf("failed to decode record payload: %w", err), opFind, componentName)
		}

		if filter == nil || mergekit.MatchesFilter(record, filter) {
			results = append(results, record)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, kiterrors.WrapStorage(fmt.Errorf("error during row iteration: %w", err), opFind, componentName)
	}

	return results, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// Stats returns database statistics for monitoring
func (s *Store) Stats() sql.DBStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return sql.DBStats{}
	}

	return s.db.Stats()
}
