package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
)

// Key is the Redis key holding the cached product list.
const Key = "catalog:products"

// CachedFetcher is a read-through cache in front of another catalog.Fetcher.
// Concurrent misses share a single origin fetch. Redis failures are logged
// and the origin is used directly.
type CachedFetcher struct {
	client *redis.Client
	origin catalog.Fetcher
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCachedFetcher wraps origin with a Redis cache entry that expires after ttl.
func NewCachedFetcher(client *redis.Client, origin catalog.Fetcher, ttl time.Duration, logger *slog.Logger) *CachedFetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedFetcher{
		client: client,
		origin: origin,
		ttl:    ttl,
		logger: logger,
	}
}

// Fetch returns the cached catalog, loading it from the origin on a miss.
func (c *CachedFetcher) Fetch(ctx context.Context) ([]domain.Product, error) {
	v, err, _ := c.group.Do(Key, func() (any, error) {
		products, err := c.get(ctx)
		if err == nil {
			return products, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "catalog cache read failed", slog.String("error", err.Error()))
		}

		products, err = c.origin.Fetch(ctx)
		if err != nil {
			return nil, err
		}

		if len(products) > 0 {
			if err := c.set(ctx, products); err != nil {
				c.logger.WarnContext(ctx, "catalog cache write failed", slog.String("error", err.Error()))
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	products := v.([]domain.Product)
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out, nil
}

// Invalidate drops the cached catalog so the next Fetch reaches the origin.
func (c *CachedFetcher) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, Key).Err(); err != nil {
		return fmt.Errorf("redis del catalog: %w", err)
	}
	return nil
}

func (c *CachedFetcher) get(ctx context.Context) ([]domain.Product, error) {
	data, err := c.client.Get(ctx, Key).Bytes()
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}

	c.logger.DebugContext(ctx, "catalog cache hit", slog.Int("products", len(products)))
	return products, nil
}

func (c *CachedFetcher) set(ctx context.Context, products []domain.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	if err := c.client.Set(ctx, Key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set catalog: %w", err)
	}
	return nil
}
