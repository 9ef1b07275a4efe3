package kv

import (
	"context"
	"errors"
	"fmt"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"

	"github.com/veotube/backend/internal/db"
)

// PostgresStore keeps values in the kv_entries table created by the migrate command.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore constructs a store backed by PostgreSQL (or CockroachDB).
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, &StorageError{Op: "get", Backend: "postgres", Key: key, Err: err}
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, &StorageError{Op: "get", Backend: "postgres", Key: key, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer conn.Release()

	var value []byte
	row := conn.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &StorageError{Op: "get", Backend: "postgres", Key: key, Err: ErrNotFound}
		}
		return nil, &StorageError{Op: "get", Backend: "postgres", Key: key, Err: err}
	}
	return value, nil
}

// Put upserts inside a retrying transaction so serialization conflicts are retried.
func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "put", Backend: "postgres", Key: key, Err: err}
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return &StorageError{Op: "put", Backend: "postgres", Key: key, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
        INSERT INTO kv_entries (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `, key, value)
		return err
	})
	if err != nil {
		return &StorageError{Op: "put", Backend: "postgres", Key: key, Err: err}
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return &StorageError{Op: "delete", Backend: "postgres", Key: key, Err: err}
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return &StorageError{Op: "delete", Backend: "postgres", Key: key, Err: fmt.Errorf("acquire connection: %w", err)}
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return &StorageError{Op: "delete", Backend: "postgres", Key: key, Err: err}
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
