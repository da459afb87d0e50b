package resolver

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed canonical-title cache. Canonical metadata never
// changes for a given id, so rows are written once and read forever;
// known-absent ids are stored with an empty title.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the cache database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("resolver store: open: %w", err)
	}
	// Single writer; the resolver serialises writes through its own mutex.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS resolver_cache (
		id    TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		year  INTEGER NOT NULL,
		kind  TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("resolver store: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the cached canonical for id. ok is false when the id has never
// been resolved. A stored known-absent id returns (nil, true, nil).
func (s *Store) Get(ctx context.Context, id string) (*Canonical, bool, error) {
	var title, kind string
	var year int
	err := s.db.QueryRowContext(ctx,
		`SELECT title, year, kind FROM resolver_cache WHERE id = ?`, id).
		Scan(&title, &year, &kind)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("resolver store: get: %w", err)
	}
	if title == "" {
		return nil, true, nil
	}
	return &Canonical{Title: title, Year: year, Kind: kind}, true, nil
}

// Put stores the canonical for id; c == nil records a known-absent id.
func (s *Store) Put(ctx context.Context, id string, c *Canonical) error {
	title, kind := "", ""
	year := 0
	if c != nil {
		title, year, kind = c.Title, c.Year, c.Kind
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO resolver_cache (id, title, year, kind) VALUES (?, ?, ?, ?)`,
		id, title, year, kind)
	if err != nil {
		return fmt.Errorf("resolver store: put: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
