// Package store is the hub's durable persistence layer: a single SQLite
// file holding the timeline and conversations relations, written to
// through one atomic compound transaction per ingest.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver, registered as "sqlite"

	"github.com/danor93/chat-router/internal/errors"
)

// Store wraps the SQLite connection used for both reads and writes.
// Close after a subsequent operation fails loudly, matching spec.md
// §4.1 — every method below returns an AppError once closed is set.
type Store struct {
	db     *sql.DB
	closed bool
}

// Open acquires the backing SQLite file under dataDir/chat-router.db,
// creating the parent directory if absent, sets the durable-journaling
// pragmas, verifies the encoding is UTF-8, and runs idempotent schema
// creation.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrFatalStartup)
	}

	dbPath := filepath.Join(dataDir, "chat-router.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.New(errors.ErrFatalStartup, fmt.Sprintf("failed to open sqlite database: %v", err))
	}

	// Single-writer semantics under WAL: one connection is optimal for a
	// file-backed SQLite database, grounded on the pack's sqlite store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.New(errors.ErrFatalStartup, fmt.Sprintf("failed to set pragma %q: %v", pragma, err))
		}
	}

	var encoding string
	if err := db.QueryRow("PRAGMA encoding").Scan(&encoding); err != nil {
		db.Close()
		return nil, errors.New(errors.ErrFatalStartup, fmt.Sprintf("failed to verify database encoding: %v", err))
	}
	if encoding != "UTF-8" {
		db.Close()
		return nil, errors.New(errors.ErrFatalStartup, fmt.Sprintf("database encoding is %q, expected UTF-8", encoding))
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the backing SQLite connection. Any further call to a
// Store method fails loudly.
func (s *Store) Close() error {
	s.closed = true
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

func (s *Store) ensureOpen() error {
	if s.closed {
		return errors.New(errors.ErrDatabaseError, "store is closed")
	}
	return nil
}

// transaction runs fn inside a *sql.Tx, committing on success and rolling
// back on any error or panic, the same helper shape the teacher's
// database/db.go uses.
func (s *Store) transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseError)
	}
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
