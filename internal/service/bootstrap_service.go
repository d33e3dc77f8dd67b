package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"movie-cinema/internal/model"
	"movie-cinema/internal/seed"
)

// BootstrapService decides the starting collection for a process.
type BootstrapService struct {
	store *CatalogStore
	seed  seed.Source
	log   *zap.Logger
}

func NewBootstrapService(store *CatalogStore, source seed.Source, log *zap.Logger) *BootstrapService {
	if log == nil {
		log = zap.NewNop()
	}
	return &BootstrapService{store: store, seed: source, log: log}
}

// Run installs the persisted collection if there is one, otherwise the seed
// document, otherwise empty categories. Seed problems are logged and skipped.
func (b *BootstrapService) Run(ctx context.Context) error {
	collection, present, err := b.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if present {
		b.log.Debug("using stored collection", zap.Int("items", collection.Len()))
		return b.install(ctx, collection)
	}

	if seeded, ok := b.fetchSeed(ctx); ok {
		b.log.Info("seeded collection", zap.Int("items", seeded.Len()))
		return b.install(ctx, seeded)
	}

	b.log.Info("starting with empty categories")
	return b.install(ctx, model.NewCollection())
}

func (b *BootstrapService) fetchSeed(ctx context.Context) (model.Collection, bool) {
	if b.seed == nil {
		return nil, false
	}
	raw, err := b.seed.Fetch(ctx)
	if err != nil {
		b.log.Warn("could not fetch seed document", zap.Error(err))
		return nil, false
	}
	collection, err := decodeCollection(raw, "seed", b.log)
	if err != nil {
		b.log.Warn("seed document is unreadable", zap.Error(err))
		return nil, false
	}
	return collection, true
}

func (b *BootstrapService) install(ctx context.Context, collection model.Collection) error {
	if err := b.store.Replace(ctx, collection); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	return nil
}
