// Package store persists the cascade's trained state — templates, hash
// tables, criteria and training-run bookkeeping — to SQLite, so that
// training and detection can run as separate processes.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite connection holding one trained cascade's state.
type Store struct {
	*sql.DB
}

// Open opens (creating if necessary) the SQLite database at path, applies
// pragmas and runs any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}

	s := &Store{db}
	if err := applyPragmas(db); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.migrateUp(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// applyPragmas sets the WAL/concurrency pragmas the cascade relies on for a
// single writer (training) and concurrent readers (detection).
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("store: apply %q: %w", p, err)
		}
	}
	return nil
}

func migrationsSubFS() (fs.FS, error) {
	return fs.Sub(migrationsFS, "migrations")
}
