package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/veotube/backend/internal/catalog"
	"github.com/veotube/backend/internal/config"
	"github.com/veotube/backend/internal/db"
	"github.com/veotube/backend/internal/handlers"
	"github.com/veotube/backend/internal/httpserver"
	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/middleware"
)

// Run bootstraps the veotube backend. Commands: serve, migrate [up|status], seed.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate":
		return runMigrations(ctx, args[1:])
	case "seed":
		return runSeed(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("close state store", "error", err)
		}
	}()
	logger.Info("state store opened", "backend", cfg.Store.Backend)

	deps, cleanup, err := buildDependencies(ctx, store, cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)

	handler := middleware.RequestLogger(logger)(mux)
	handler = otelhttp.NewHandler(handler, "veotube")

	srv := httpserver.New(cfg.AppPort, handler, httpserver.WithBaseContext(ctx))

	logger.Info("starting http server", "port", cfg.AppPort)

	return httpserver.Run(ctx, srv, func(shutdownCtx context.Context) {
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn("pending work did not settle", "error", err)
		}
	})
}

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// runMigrations creates the kv_entries table used by the postgres state
// backend. Other backends need no schema.
func runMigrations(ctx context.Context, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, logging.New(os.Stdout, cfg.LogLevel))

	command := "up"
	if len(args) > 0 {
		command = args[0]
	}
	if command != "up" && command != "status" {
		return fmt.Errorf("unknown migrate command %q", command)
	}

	if cfg.Store.Backend != "postgres" {
		fmt.Printf("store backend %q needs no migrations\n", cfg.Store.Backend)
		return nil
	}

	migrationDir, migrations, err := listMigrations(cfg.MigrationDir)
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}

	if command == "status" {
		for _, name := range migrations {
			mark := " "
			if _, ok := applied[name]; ok {
				mark = "x"
			}
			fmt.Printf("[%s] %s\n", mark, name)
		}
		return nil
	}

	pending := 0
	for _, name := range migrations {
		if _, ok := applied[name]; ok {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationDir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyMigrationWithRetry(ctx, conn, name, string(contents)); err != nil {
			return err
		}
		pending++
		fmt.Printf("applied migration %s\n", name)
	}
	if pending == 0 {
		fmt.Println("no migrations to apply")
	}
	return nil
}

func listMigrations(dir string) (string, []string, error) {
	if !filepath.IsAbs(dir) {
		wd, err := os.Getwd()
		if err != nil {
			return "", nil, fmt.Errorf("determine working directory: %w", err)
		}
		dir = filepath.Join(wd, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		migrations = append(migrations, entry.Name())
	}
	sort.Strings(migrations)
	return dir, migrations, nil
}

func appliedMigrations(ctx context.Context, conn *pgxpool.Conn) (map[string]struct{}, error) {
	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return nil, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

// runSeed replaces the persisted catalog with the example videos.
func runSeed(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] != "catalog" {
		return fmt.Errorf("unknown seed %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx = logging.WithLogger(ctx, logging.New(os.Stdout, cfg.LogLevel))

	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	videos := catalog.New(store)
	if err := videos.Reset(ctx); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	fmt.Printf("seeded %d videos into %s store\n", videos.Len(), cfg.Store.Backend)
	return nil
}

func applyMigrationWithRetry(ctx context.Context, conn *pgxpool.Conn, name string, contents string) error {
	logger := logging.FromContext(ctx)
	var attempt int
	for attempt = 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
			if backoff > migrationMaxBackoff {
				backoff = migrationMaxBackoff
			}
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			timer.Stop()
		}

		tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return fmt.Errorf("begin migration transaction for %s: %w", name, err)
		}

		if _, err := tx.Exec(ctx, contents); err != nil {
			_ = tx.Rollback(ctx)
			if shouldRetryMigration(err) && attempt < migrationMaxRetries-1 {
				logger.Warn("transient error applying migration", "migration", name, "attempt", attempt+1, "error", err)
				continue
			}
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
			_ = tx.Rollback(ctx)
			if shouldRetryMigration(err) && attempt < migrationMaxRetries-1 {
				logger.Warn("transient error recording migration", "migration", name, "attempt", attempt+1, "error", err)
				continue
			}
			return fmt.Errorf("record migration %s: %w", name, err)
		}

		if err := tx.Commit(ctx); err != nil {
			_ = tx.Rollback(ctx)
			if shouldRetryMigration(err) && attempt < migrationMaxRetries-1 {
				logger.Warn("transient error committing migration", "migration", name, "attempt", attempt+1, "error", err)
				continue
			}
			return fmt.Errorf("commit migration %s: %w", name, err)
		}

		return nil
	}

	return fmt.Errorf("apply migration %s: exceeded max retries (%d)", name, attempt)
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retryablePgErrorCodes[pgErr.Code]; ok {
			return true
		}
	}

	if errors.Is(err, pgx.ErrTxClosed) {
		return true
	}

	return false
}
