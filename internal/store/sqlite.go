// Package store provides durable key-value document stores for the ledger.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLite stores documents in a single-table SQLite database.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the document database at the given path.
func Open(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)"
	if err := runMigrations(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging ledger db: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get returns the stored document for key, or nil if absent.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM documents WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// GetMany reads keys from one snapshot. Absent keys are omitted from the
// result.
func (s *SQLite) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := make(map[string][]byte, len(keys))
	for _, key := range keys {
		var value []byte
		err := tx.QueryRowContext(ctx, "SELECT value FROM documents WHERE key = ?", key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		out[key] = value
	}
	return out, nil
}

// Update runs a read-modify-write under the database write lock. fn sees the
// current value of every key (absent keys are omitted) and returns the
// documents to write; a nil or empty result commits nothing. Writers in other
// processes block on busy_timeout until the transaction ends.
func (s *SQLite) Update(ctx context.Context, keys []string, fn func(current map[string][]byte) (map[string][]byte, error)) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("locking ledger db: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			// The caller's ctx may already be cancelled; rollback must still run.
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	current := make(map[string][]byte, len(keys))
	for _, key := range keys {
		var value []byte
		err := conn.QueryRowContext(ctx, "SELECT value FROM documents WHERE key = ?", key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", key, err)
		}
		current[key] = value
	}

	docs, err := fn(current)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range docs {
		_, err := conn.ExecContext(ctx, `INSERT OR REPLACE INTO documents (key, value, updated_at)
			VALUES (?, ?, ?)`, key, value, now)
		if err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	committed = true
	return nil
}

// SetMany writes every document in one transaction. Readers see either all of
// the new values or none of them.
func (s *SQLite) SetMany(ctx context.Context, docs map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range docs {
		_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO documents (key, value, updated_at)
			VALUES (?, ?, ?)`, key, value, now)
		if err != nil {
			return fmt.Errorf("writing %s: %w", key, err)
		}
	}

	return tx.Commit()
}

// UpdatedAt returns when key was last written, or the zero time if never.
func (s *SQLite) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var ts string
	err := s.db.QueryRowContext(ctx, "SELECT updated_at FROM documents WHERE key = ?", key).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, _ := time.Parse(time.RFC3339, ts)
	return t, nil
}
