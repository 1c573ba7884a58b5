package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

var (
	// ErrJournalClosed is returned by calls made after Close.
	ErrJournalClosed = errors.New("journal closed")
	// ErrDuplicateTransition indicates a transition id that is already stored.
	ErrDuplicateTransition = errors.New("duplicate transition id")
)

// Journal is the sqlite-backed log of emitted connectivity results.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
	closed atomic.Bool
}

func New(ctx context.Context, dbPath string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	journal := &Journal{db: db, logger: logger}
	if err := journal.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return journal, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	if j.closed.Swap(true) {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) migrate(ctx context.Context) error {
	statements := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS state_transitions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			recorded_at TEXT NOT NULL,
			connection_type TEXT NOT NULL,
			is_connected INTEGER NOT NULL,
			delivered INTEGER NOT NULL,
			result_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_state_transitions_type ON state_transitions(connection_type);`,
	}

	for _, stmt := range statements {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}
	return nil
}
