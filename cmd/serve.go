package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/filesmith/filesmith/api"
	"github.com/filesmith/filesmith/internal/observability"
)

// runServe initializes and starts the HTTP API server.
func runServe() error {
	addr, err := parseServeAddr()
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := commandContext()
	defer cancel()

	logger := slog.Default()
	logger.Info("starting HTTP API server", "version", AppVersion)

	a, err := setup(ctx)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer a.Close()

	if a.Config.OTLP.Enabled {
		shutdown, err := observability.Setup(ctx, observability.Config{
			Endpoint:    a.Config.OTLP.Endpoint,
			Environment: a.Config.OTLP.Environment,
			ServiceName: a.Config.OTLP.ServiceName,
		})
		if err != nil {
			return fmt.Errorf("setting up tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("trace shutdown error", "error", err)
			}
		}()
	}

	apiServer, err := api.NewServer(api.Config{
		Logger:       logger.With("component", "api"),
		Store:        a.Store,
		Materializer: a.Materializer,
		RateRPS:      a.Config.RateRPS,
		RateBurst:    a.Config.RateBurst,
		TrustProxy:   a.Config.TrustProxy,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"api", "/api/*",
		"health", "/health, /ready",
	)

	if err := apiServer.Run(ctx, addr); err != nil {
		return fmt.Errorf("HTTP server: %w", err)
	}
	return nil
}
