package cli

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/driftwall/pkg/cache"
	"github.com/matzehuels/driftwall/pkg/canvas"
	"github.com/matzehuels/driftwall/pkg/errors"
	"github.com/matzehuels/driftwall/pkg/masonry"
	"github.com/matzehuels/driftwall/pkg/sector"
	"github.com/matzehuels/driftwall/pkg/source"
)

// stack bundles the wired components a command works with: backend client,
// sector store, canvas, and the cache backend to release on exit.
type stack struct {
	client *source.Client
	store  *sector.Store
	canvas *canvas.Canvas
	cache  cache.Cache
}

// buildStack wires cache, source client, sector store, and canvas from the
// configuration.
func buildStack(ctx context.Context, cfg *Config, logger *log.Logger) (*stack, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "base URL is required (flag --base-url or config base_url)")
	}

	backend, err := newCacheBackend(ctx, cfg, logger)
	if err != nil {
		logger.Warn("cache backend unavailable, caching disabled", "error", err)
		backend = cache.NewNullCache()
	}

	client, err := source.NewClient(source.ClientOptions{
		BaseURL: cfg.BaseURL,
		Cache:   backend,
		Logger:  logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	store, err := sector.New(sector.Options{
		ChunkSize:  cfg.Canvas.ChunkSize,
		MaxSectors: cfg.Canvas.MaxSectors,
		Logger:     logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	resolver := source.NewResolver()
	if total, ok := client.CachedTotalPages(ctx); ok {
		resolver.Observe(total)
		logger.Debug("warm-started page total from cache", "total_pages", total)
	}

	cv, err := canvas.New(canvas.Options{
		Fetcher:  client,
		Resolver: resolver,
		Store:    store,
		Seed:     cfg.Canvas.Seed,
		Logger:   logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &stack{client: client, store: store, canvas: cv, cache: backend}, nil
}

// close releases the cache backend.
func (s *stack) close() {
	_ = s.cache.Close()
}

// newEngine builds a masonry engine whose generator draws unique records
// from the backend feed.
func (s *stack) newEngine(cfg *Config, logger *log.Logger) (*masonry.Engine, error) {
	feed, err := source.NewFeed(source.FeedOptions{
		Fetcher: s.client,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	gen := masonry.GeneratorFunc(func(ctx context.Context) (masonry.Descriptor, error) {
		rec, err := feed.Next(ctx)
		if err != nil {
			return masonry.Descriptor{}, err
		}
		return masonry.Descriptor{
			ID:      rec.ID,
			Width:   rec.Width,
			Height:  rec.Height,
			Payload: rec.Payload,
		}, nil
	})

	return masonry.New(masonry.Options{
		Generator:   gen,
		ColumnWidth: cfg.Layout.ColumnWidth,
		ColumnGap:   cfg.Layout.ColumnGap,
		RowGap:      cfg.Layout.RowGap,
		OverscanY:   cfg.Layout.OverscanY,
		Logger:      logger,
	})
}
