package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a product id resolves to nothing.
var ErrNotFound = errors.New("store: not found")

// ErrNoData is returned by Summary when a product has no successful
// observation to aggregate.
var ErrNoData = errors.New("store: no data")

// Error wraps a persistence failure. Callers treat these as fatal to the
// current check cycle.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Store persists the product registry, the append-only observation series
// and per-product alert state in SQLite. Appends to a single product's
// series are serialized by a per-product lock; different products never
// contend.
type Store struct {
	db     *sql.DB
	logger *zap.Logger

	mu          sync.Mutex
	appendLocks map[string]*sync.Mutex
}

// Open connects to the SQLite database at path and creates the schema if
// missing.
func Open(path string, logger *zap.Logger) (*Store, error) {
	// Busy timeout rides on the DSN so every pooled connection waits out
	// writer contention instead of failing fast.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, storageErr("open", err)
	}

	s := &Store{
		db:          db,
		logger:      logger,
		appendLocks: make(map[string]*sync.Mutex),
	}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store ready", zap.String("path", path))
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		target_price TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS observations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT NOT NULL,
		price TEXT,
		captured_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_observations_product
		ON observations(product_id, captured_at);
	CREATE TABLE IF NOT EXISTS alert_state (
		product_id TEXT PRIMARY KEY,
		position TEXT NOT NULL,
		last_alert_price TEXT,
		last_observation_id INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return storageErr("init schema", err)
	}
	return nil
}

// appendLock returns the mutex serializing appends for one product.
func (s *Store) appendLock(productID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.appendLocks[productID]
	if !ok {
		l = &sync.Mutex{}
		s.appendLocks[productID] = l
	}
	return l
}
