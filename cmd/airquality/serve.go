package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/air-quality-etl/internal/adapter/http"
	"github.com/couchcryptid/air-quality-etl/internal/config"
)

type serveCmd struct {
	Source sourceFlags `embed:""`
}

// Run executes the pipeline once, then serves its report until SIGINT or
// SIGTERM. A failed run keeps /readyz unhealthy instead of exiting.
func (s *serveCmd) Run(cfg *config.Config, logger *slog.Logger) error {
	s.Source.apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, a.pipeline, a.pipeline, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	if _, err := a.runOnce(ctx, os.Stdout); err != nil {
		logger.Error("pipeline error", "error", err)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := a.Close(); err != nil {
		logger.Error("close sinks", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
