package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Server wraps the http.Server with defaults suited to requests that wait
// on simulated latency and to long-lived websocket feeds.
type Server struct {
	inner *http.Server
}

// Option adjusts the underlying http.Server.
type Option func(*http.Server)

// WithBaseContext makes every request context derive from ctx, so values
// such as the logger reach handlers.
func WithBaseContext(ctx context.Context) Option {
	return func(s *http.Server) {
		s.BaseContext = func(net.Listener) context.Context { return ctx }
	}
}

// WithWriteTimeout overrides the response write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *http.Server) {
		s.WriteTimeout = d
	}
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler, opts ...Option) *Server {
	inner := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	for _, opt := range opts {
		opt(inner)
	}
	return &Server{inner: inner}
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start begins serving HTTP traffic. A graceful shutdown is not reported as an error.
func (s *Server) Start() error {
	if err := s.inner.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully terminates the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
