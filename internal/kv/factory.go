package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veotube/backend/internal/config"
	"github.com/veotube/backend/internal/db"
)

// Open creates the Store selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if backend == "" {
		backend = "file"
	}

	switch backend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.Store.Path)
	case "badger":
		return OpenBadgerStore(cfg.Store.Path)
	case "sqlite":
		path := cfg.Store.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "veotube.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &StorageError{Op: "open", Backend: "sqlite", Err: err}
		}
		return OpenSQLiteStore(ctx, path)
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, &StorageError{Op: "open", Backend: "postgres", Err: err}
		}
		return NewPostgresStore(pool), nil
	case "redis":
		return OpenRedisStore(ctx, RedisOptions{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
