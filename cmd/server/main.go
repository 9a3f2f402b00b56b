// Command server runs the shop backend.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nhupane/gopasal/internal/app"
	"github.com/nhupane/gopasal/internal/config"
	"github.com/nhupane/gopasal/pkg/bootstrap"
	"github.com/nhupane/gopasal/pkg/config/configloader"
	"github.com/nhupane/gopasal/pkg/server"
	"github.com/nhupane/gopasal/pkg/telemetry"
)

const serviceName = "gopasal"

func main() {
	if err := run(); err != nil {
		slog.Error("Service terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := configloader.Load[*config.Config](serviceName)
	if err != nil {
		return err
	}

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)
	logger.Info("Configuration loaded", "config", cfg.String())

	if cfg.Telemetry.Enabled {
		tp, err := telemetry.NewTracerProvider(ctx, serviceName, cfg.Telemetry)
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("Failed to shut down tracer provider", "error", err)
			}
		}()
	}

	mp, err := telemetry.NewMeterProvider(serviceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down meter provider", "error", err)
		}
	}()

	deps, err := app.SetupDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	handler := app.SetupHttpHandler(deps)
	httpServer := app.SetupHttpServer(deps, handler)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var opsServer *http.Server
	if cfg.Ops.Enabled {
		opsServer = server.NewOpsServer(cfg.Ops.Addr)
		g.Go(func() error {
			logger.Info("Ops server listening", "addr", opsServer.Addr)
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
		}
		if opsServer != nil {
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Ops server shutdown failed", "error", err)
			}
		}
		return nil
	})

	return g.Wait()
}
