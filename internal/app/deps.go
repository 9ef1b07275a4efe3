package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/veotube/backend/internal/auth"
	"github.com/veotube/backend/internal/catalog"
	"github.com/veotube/backend/internal/config"
	"github.com/veotube/backend/internal/creation"
	"github.com/veotube/backend/internal/devices"
	"github.com/veotube/backend/internal/generation"
	"github.com/veotube/backend/internal/handlers"
	"github.com/veotube/backend/internal/kv"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/middleware"
	"github.com/veotube/backend/internal/navigation"
	"github.com/veotube/backend/internal/storage"
)

// buildDependencies restores the persisted session state from store and
// wires the concrete implementations used by the HTTP handlers. The cleanup
// function abandons pending modal work and waits for it to settle.
func buildDependencies(ctx context.Context, store kv.Store, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	logger := logging.FromContext(ctx)

	identity := auth.NewManager(store)
	identity.Restore(ctx)

	videos := catalog.New(store)
	videos.Initialize(ctx)

	machine := navigation.NewMachine(identity, navigation.NewHub())

	registry := devices.NewRegistry(store, machine.Scope(navigation.ModalTVConnect), cfg.Delays.Pairing)
	registry.Load(ctx)

	creationCfg := creation.Config{
		Catalog:     videos,
		Identity:    identity,
		Navigator:   machine,
		Scope:       machine.Scope(navigation.ModalCreate),
		UploadDelay: cfg.Delays.Upload,
	}

	var mediaDir string
	if cfg.ObjectStore.Bucket != "" {
		assets, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		creationCfg.Assets = assets
		logger.Info("uploads go to object storage", slog.String("bucket", cfg.ObjectStore.Bucket))
	} else {
		assets, err := storage.NewLocalStorage(cfg.UploadDir, handlers.MediaPrefix)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		creationCfg.Assets = assets
		creationCfg.InlineImages = true
		mediaDir = assets.Dir()
	}

	if client := generation.NewClient(cfg.Generation); client.Enabled() {
		creationCfg.Generator = client
	} else {
		logger.Info("video generation disabled: no API key configured")
	}

	deps := handlers.Dependencies{
		Catalog:    videos,
		Identity:   identity,
		Navigation: machine,
		Creator:    creation.NewService(creationCfg),
		Devices:    registry,
		Limiter:    middleware.NewKeyedLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst),
		LoginDelay: cfg.Delays.Login,
		MediaDir:   mediaDir,
	}

	cleanup := func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			machine.Close(ctx)
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	logger.Info("session state restored",
		slog.Int("videos", videos.Len()),
		slog.Int("devices", len(registry.List())),
	)
	return deps, cleanup, nil
}
