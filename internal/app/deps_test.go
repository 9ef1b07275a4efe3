package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/veotube/backend/internal/config"
	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/models"
)

func TestBuildDependencies(t *testing.T) {
	cfg := config.Default()
	cfg.UploadDir = t.TempDir()

	store := kv.NewMemoryStore()
	user := models.User{ID: "u1", Name: "Ana"}
	raw, _ := json.Marshal(user)
	if err := store.Put(context.Background(), models.KeyCurrentUser, raw); err != nil {
		t.Fatalf("seed identity: %v", err)
	}

	deps, cleanup, err := buildDependencies(context.Background(), store, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	}()

	if deps.Catalog == nil || len(deps.Catalog.All()) != 3 {
		t.Fatal("expected catalog to be seeded")
	}
	if got, ok := deps.Identity.Current(); !ok || got.Name != "Ana" {
		t.Fatalf("expected persisted identity to be restored got %+v", got)
	}
	if deps.Navigation == nil || deps.Creator == nil || deps.Devices == nil || deps.Limiter == nil {
		t.Fatal("expected every collaborator to be configured")
	}
	if deps.MediaDir != cfg.UploadDir {
		t.Fatalf("expected local media dir %s got %s", cfg.UploadDir, deps.MediaDir)
	}
	if deps.LoginDelay != cfg.Delays.Login {
		t.Fatalf("unexpected login delay %v", deps.LoginDelay)
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	cfg := config.Default()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, cleanup, err := buildDependencies(context.Background(), kv.NewMemoryStore(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup(context.Background())

	if deps.MediaDir != "" {
		t.Fatalf("expected no local media dir with object storage got %q", deps.MediaDir)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without a command")
	}
	if err := Run(context.Background(), []string{"dance"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
