package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filesmith/filesmith/db"
	"github.com/filesmith/filesmith/internal/asset"
	"github.com/filesmith/filesmith/internal/config"
	"github.com/filesmith/filesmith/internal/convert"
	"github.com/filesmith/filesmith/internal/materialize"
)

// app holds the wired components for one command invocation.
type app struct {
	Config       *config.Config
	Store        asset.Store
	Materializer *materialize.Materializer
}

// setup loads configuration and wires the asset store, conversion client
// and materializer. The caller must Close the returned app.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.Default()

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating asset store: %w", err)
	}

	renderer := convert.NewClient(cfg.RendererURL, &http.Client{
		Timeout: time.Duration(cfg.RenderTimeoutSeconds) * time.Second,
	}, logger.With("component", "convert"))

	m := materialize.New(materialize.Config{
		Publisher: store,
		Lister:    store,
		Renderer:  renderer,
		Logger:    logger.With("component", "materialize"),
	})

	return &app{
		Config:       cfg,
		Store:        store,
		Materializer: m,
	}, nil
}

// Close releases the asset store's resources.
func (a *app) Close() {
	a.Store.Close()
}

// buildStore creates the configured asset store backend. The postgres
// backend runs pending migrations before opening the pool.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (asset.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := db.Migrate(cfg.PostgresURL()); err != nil {
			return nil, fmt.Errorf("running migrations: %w", err)
		}

		pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
		if err != nil {
			return nil, fmt.Errorf("creating connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		return asset.NewPostgresStore(pool, logger.With("component", "store")), nil

	default:
		store, err := asset.NewFSStore(cfg.StoreRoot, logger.With("component", "store"))
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
