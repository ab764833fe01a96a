// Package history records which files were viewed and when.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed view history.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// OpenMemory creates an in-memory history store (useful for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS views (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    viewed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_views_path ON views(path);
CREATE INDEX IF NOT EXISTS idx_views_viewed_at ON views(viewed_at);
`

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// RecordView appends one view of path.
func (s *Store) RecordView(path string) error {
	_, err := s.db.Exec(`INSERT INTO views (path) VALUES (?)`, path)
	if err != nil {
		return fmt.Errorf("recording view: %w", err)
	}
	return nil
}

// Entry is one recorded view.
type Entry struct {
	Path     string    `json:"path"`
	ViewedAt time.Time `json:"viewed_at"`
}

// Recent returns the latest views, newest first. Each path appears once,
// at its most recent viewing.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`
		SELECT path, MAX(viewed_at) AS last
		FROM views
		GROUP BY path
		ORDER BY last DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent views: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.Path, &ts); err != nil {
			return nil, fmt.Errorf("scanning view row: %w", err)
		}
		e.ViewedAt, err = time.Parse("2006-01-02 15:04:05", ts)
		if err != nil {
			return nil, fmt.Errorf("parsing view timestamp %q: %w", ts, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns per-path view totals.
func (s *Store) Counts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT path, COUNT(*) FROM views GROUP BY path`)
	if err != nil {
		return nil, fmt.Errorf("querying view counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var path string
		var n int
		if err := rows.Scan(&path, &n); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[path] = n
	}
	return counts, rows.Err()
}
