package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// pruneInterval is how often idle rate limiter clients are forgotten.
const pruneInterval = time.Hour

// Addr returns the listen address of the config.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	httpServer := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if s.timeout > 0 {
		// Leave room for the response after a request context times out.
		httpServer.ReadTimeout = s.timeout
		httpServer.WriteTimeout = s.timeout + 5*time.Second
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting docstruct server", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ticker.C:
			if n := s.Prune(time.Now().Add(-24 * time.Hour)); n > 0 {
				slog.Debug("Pruned idle rate limit clients", "count", n)
			}
		case <-ctx.Done():
			slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			slog.Info("HTTP server shutdown completed")
			return nil
		}
	}
}
