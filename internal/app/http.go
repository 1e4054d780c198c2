package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/specialistvlad/sapmd/internal/api"
	"github.com/specialistvlad/sapmd/internal/ctxlog"
)

const shutdownTimeout = 5 * time.Second

// Handler returns the HTTP API with /metrics mounted.
func (a *App) Handler() http.Handler {
	metrics := promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	return api.NewServer(a.graph, a.logger).Router(metrics)
}

func (a *App) newHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// serveHTTP runs srv until ctx is canceled, then shuts it down gracefully.
func (a *App) serveHTTP(ctx context.Context, srv *http.Server) error {
	logger := ctxlog.FromContext(ctx)
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API starting", "address", fmt.Sprintf("http://localhost%s", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP API failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down HTTP API...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP API shutdown failed", "error", err)
		return err
	}
	logger.Debug("HTTP API shut down gracefully.")
	return nil
}
