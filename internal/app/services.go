package app

import (
	"context"
	"fmt"
	"log/slog"

	"vstoxxcli/internal/config"
	"vstoxxcli/internal/dataprocessing"
	apierrors "vstoxxcli/internal/errors"
	"vstoxxcli/internal/exporter"
	"vstoxxcli/internal/infrastructure"
	"vstoxxcli/internal/services"
	"vstoxxcli/internal/storage/postgres"
	"vstoxxcli/internal/vstoxx"
)

// ServiceContainer holds the services shared by the server and the CLI
type ServiceContainer struct {
	Index   *services.IndexService
	Health  *services.HealthService
	Results *exporter.ResultExporter
	Paths   *config.Paths

	pool *postgres.Pool
}

// NewServiceContainer wires loading, computation, export and, when enabled,
// the Postgres result store
func NewServiceContainer(ctx context.Context, cfg *config.Config, build services.BuildInfo, providers *infrastructure.OTelProviders, logger *slog.Logger) (*ServiceContainer, error) {
	mode, err := vstoxx.ParseMode(cfg.Compute.Mode)
	if err != nil {
		return nil, apierrors.NewConfigError("invalid compute.mode", err)
	}

	paths := cfg.Paths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	c := &ServiceContainer{
		Results: exporter.NewResultExporter(paths, logger),
		Paths:   paths,
	}

	opts := services.IndexServiceOptions{
		Defaults: vstoxx.Options{Mode: mode, Workers: cfg.Compute.Workers},
		Loader: dataprocessing.NewLoader(dataprocessing.LoaderOptions{
			DateFormat:             cfg.Data.DateFormat,
			RequireIncreasingDates: true,
		}, logger),
		Exporter: c.Results,
	}

	if providers != nil {
		recorder, err := vstoxx.NewOTelRecorder(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create compute metrics: %w", err)
		}
		opts.Recorder = recorder
	}

	var pinger services.Pinger
	if cfg.Store.Enabled {
		if err := c.openStore(ctx, cfg.Store, logger, &opts); err != nil {
			return nil, err
		}
		pinger = c.pool
	}

	c.Index = services.NewIndexService(opts, logger)
	c.Health = services.NewHealthService(build, paths.DataDir, pinger, logger)
	return c, nil
}

func (c *ServiceContainer) openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger, opts *services.IndexServiceOptions) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	logger = infrastructure.WithComponent(logger, "index_store")

	pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	if err := pool.Migrate(ctx, cfg.Table, logger); err != nil {
		pool.Close()
		return fmt.Errorf("failed to migrate index store: %w", err)
	}
	store, err := postgres.NewIndexStore(pool, cfg.Table)
	if err != nil {
		pool.Close()
		return err
	}

	logger.InfoContext(ctx, "index store enabled", slog.String("table", cfg.Table))
	c.pool = pool
	opts.Store = store
	return nil
}

// Close releases the store connection pool, if any
func (c *ServiceContainer) Close() {
	if c.pool != nil {
		c.pool.Close()
		c.pool = nil
	}
}
