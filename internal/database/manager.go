package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"seller-users/internal/domain"
)

const connectTimeout = 10 * time.Second

// Manager owns the process-wide database handle. It is created unconnected;
// Connect is driven lazily by the init gate so cold starts pay the cost on
// the first request only. Every consumer must go through DB, which fails
// fast while the handle is absent instead of blocking.
type Manager struct {
	mu      sync.RWMutex
	db      *sql.DB
	path    string
	maxOpen int
	logger  *logrus.Logger
}

func NewManager(path string, maxOpenConns int, logger *logrus.Logger) *Manager {
	if maxOpenConns < 1 {
		maxOpenConns = 1
	}
	return &Manager{
		path:    path,
		maxOpen: maxOpenConns,
		logger:  logger,
	}
}

// Path returns the location of the database file.
func (m *Manager) Path() string {
	return m.path
}

// Connect opens the database, verifies it with a ping and keeps the handle.
// Calling Connect on an already connected manager is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return nil
	}

	db, err := open(m.path, m.maxOpen)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	m.db = db
	m.logger.WithField("path", m.path).Info("database connection established")
	return nil
}

// DB returns the live handle, or ErrStorageUnavailable when the manager has
// not (successfully) connected yet.
func (m *Manager) DB() (*sql.DB, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.db == nil {
		return nil, domain.ErrStorageUnavailable
	}
	return m.db, nil
}

// Connected reports whether a handle is currently held.
func (m *Manager) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db != nil
}

// Ping probes the connection for health reporting.
func (m *Manager) Ping(ctx context.Context) error {
	db, err := m.DB()
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return db.PingContext(pingCtx)
}

// Close releases the handle. Safe to call on an unconnected manager.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// open opens (or creates) a sqlite database at the given path and ensures
// directories exist.
func open(path string, maxOpenConns int) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// bounded pool; sqlite writes serialize anyway
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}
