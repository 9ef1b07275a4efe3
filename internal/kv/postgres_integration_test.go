package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cockroach integration test in short mode")
	}

	server, err := testserver.NewTestServer()
	if err != nil {
		t.Skipf("cockroach test server unavailable: %v", err)
	}
	defer server.Stop()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		t.Fatalf("connect to cockroach test server: %v", err)
	}

	ddl, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_kv_entries.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := pool.Exec(ctx, string(ddl)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}

	store := NewPostgresStore(pool)
	defer store.Close()

	exerciseStore(t, store)
}
