package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"movie-cinema/internal/config"
	"movie-cinema/internal/repository"
	"movie-cinema/internal/seed"
	"movie-cinema/internal/service"
)

// app holds the wiring shared by every command.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	kv    repository.KeyValue
	store *service.CatalogStore
}

// withCatalog opens storage, bootstraps the catalog and runs fn against it.
func withCatalog(ctx context.Context, fn func(a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	kv, err := repository.Open(ctx, cfg.StorageURL, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			log.Warn("close storage", zap.Error(err))
		}
	}()

	store := service.NewCatalogStore(kv, log)
	if err := service.NewBootstrapService(store, seed.New(cfg.SeedSource), log).Run(ctx); err != nil {
		return fmt.Errorf("bootstrap catalog: %w", err)
	}

	return fn(&app{cfg: cfg, log: log, kv: kv, store: store})
}

func newLogger(level, format string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
