package httpserver

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veotube/backend/internal/logging"
)

// ShutdownTimeout controls how long to wait for graceful shutdowns.
var ShutdownTimeout = 10 * time.Second

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or the listener
// fails, then shuts down within ShutdownTimeout. Hooks run after the listener
// has stopped accepting requests, in order.
func Run(ctx context.Context, srv *Server, hooks ...func(context.Context)) error {
	logger := logging.FromContext(ctx)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start()
	}()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case err := <-srvErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	for _, hook := range hooks {
		hook(shutdownCtx)
	}
	return err
}
