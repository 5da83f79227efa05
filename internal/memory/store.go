// Package memory provides the persistent key-value and pattern store backing
// the coordinator's learning loop.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/apiarylabs/regent/pkg/models"
)

// Store is the persistence contract consumed by the coordinator, analyzer,
// and decision engine. Writes are atomic puts; patterns and decisions are
// append-only.
type Store interface {
	// Put stores a value under a key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Get returns the value for a key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// AppendPattern records a historical pattern.
	AppendPattern(ctx context.Context, p *models.Pattern) error
	// AppendDecision records a write-once decision audit record.
	AppendDecision(ctx context.Context, d *models.Decision) error
	// FindSimilarPatterns returns patterns whose agent sequence or task type
	// textually overlaps the given text, best match first.
	FindSimilarPatterns(ctx context.Context, text string) ([]*models.Pattern, error)
	// FindBestPattern returns the strongest pattern for a task type, or nil.
	FindBestPattern(ctx context.Context, taskType models.TaskType) (*models.Pattern, error)
	// Close releases the underlying resources.
	Close() error
}

// SQLiteStore is the SQLite-backed Store implementation.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// DefaultDBPath returns the XDG data path for the coordinator memory.
func DefaultDBPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "regent", "memory.db")
}

// Open opens the store at the given path, creating parent directories and
// applying schema migrations. WAL mode is enabled for concurrent reads.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: conn, path: dbPath}
	if err := store.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the path to the database file.
func (s *SQLiteStore) Path() string {
	return s.path
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
