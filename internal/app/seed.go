package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/catalog/postgres"
	catalogredis "github.com/utafrali/storefront/internal/catalog/redis"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
)

// ProductWriter stores catalog products.
type ProductWriter interface {
	Upsert(ctx context.Context, products []domain.Product) (int, error)
}

// CacheInvalidator drops a cached catalog.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Seeder copies the catalog API into the product database.
type Seeder struct {
	origin catalog.Fetcher
	store  ProductWriter
	cache  CacheInvalidator
	logger *slog.Logger
}

// NewSeeder creates a seeder. cache may be nil.
func NewSeeder(origin catalog.Fetcher, store ProductWriter, cache CacheInvalidator, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Seeder{origin: origin, store: store, cache: cache, logger: logger}
}

// Run fetches the catalog, upserts every product and invalidates the cache.
// It returns the number of products written.
func (s *Seeder) Run(ctx context.Context) (int, error) {
	products, err := s.origin.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch catalog: %w", err)
	}
	if len(products) == 0 {
		s.logger.WarnContext(ctx, "catalog is empty, nothing to seed")
		return 0, nil
	}

	n, err := s.store.Upsert(ctx, products)
	if err != nil {
		return n, fmt.Errorf("seed products: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "catalog cache not invalidated", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "catalog seeded", slog.Int("products", n))
	return n, nil
}

// Seed connects to Postgres (and Redis when the cache is enabled) and copies
// the catalog API into the products table.
func Seed(ctx context.Context, cfg *config.Config, logger *slog.Logger) (int, error) {
	pool, err := ConnectPostgres(ctx, cfg, nil, logger)
	if err != nil {
		return 0, err
	}
	defer pool.Close()

	var cache CacheInvalidator
	if cfg.CacheEnabled {
		client, err := ConnectRedis(ctx, cfg, logger)
		if err != nil {
			return 0, err
		}
		defer client.Close()
		cache = catalogredis.NewCachedFetcher(client, nil, cfg.CacheTTL, logger)
	}

	seeder := NewSeeder(NewHTTPFetcher(cfg, logger), postgres.NewProductRepository(pool), cache, logger)
	return seeder.Run(ctx)
}
