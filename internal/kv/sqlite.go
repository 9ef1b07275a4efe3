package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps values in a single-table SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens the database at path in WAL mode and ensures the table exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, (5 * time.Second).Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageError{Op: "open", Backend: "sqlite", Err: err}
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv_entries (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, &StorageError{Op: "open", Backend: "sqlite", Err: fmt.Errorf("ensure table: %w", err)}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &StorageError{Op: "get", Backend: "sqlite", Key: key, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "get", Backend: "sqlite", Key: key, Err: err}
	}
	return value, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "put", Backend: "sqlite", Key: key, Err: err}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UnixMilli())
	if err != nil {
		return &StorageError{Op: "put", Backend: "sqlite", Key: key, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return &StorageError{Op: "delete", Backend: "sqlite", Key: key, Err: err}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
