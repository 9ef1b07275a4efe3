package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 {
		t.Fatalf("expected default port got %d", cfg.AppPort)
	}
	if cfg.Store.Backend != "file" {
		t.Fatalf("expected file backend got %q", cfg.Store.Backend)
	}
	if cfg.Delays.Login != 1500*time.Millisecond {
		t.Fatalf("unexpected login delay %v", cfg.Delays.Login)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "veotube.yaml")
	contents := []byte("port: 9000\nstore:\n  backend: sqlite\n  path: /tmp/veotube.db\ndelays:\n  pairing: 250ms\n")
	if err := os.WriteFile(path, contents, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("VEOTUBE_CONFIG", path)
	t.Setenv("VEOTUBE_PORT", "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 9100 {
		t.Fatalf("expected env to override file port got %d", cfg.AppPort)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path != "/tmp/veotube.db" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Delays.Pairing != 250*time.Millisecond {
		t.Fatalf("unexpected pairing delay %v", cfg.Delays.Pairing)
	}
	if cfg.Delays.Upload != 2*time.Second {
		t.Fatalf("expected untouched default upload delay got %v", cfg.Delays.Upload)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VEOTUBE_PORT", "not-a-number")
	t.Setenv("VEOTUBE_LOGIN_DELAY", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AppPort != 8080 || cfg.Delays.Login != 1500*time.Millisecond {
		t.Fatalf("expected fallbacks, got port %d delay %v", cfg.AppPort, cfg.Delays.Login)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = "floppy"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
