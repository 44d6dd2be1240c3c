package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/catalog"
	cataloghttp "github.com/utafrali/storefront/internal/catalog/http"
	"github.com/utafrali/storefront/internal/catalog/postgres"
	"github.com/utafrali/storefront/internal/catalog/postgres/migrations"
	catalogredis "github.com/utafrali/storefront/internal/catalog/redis"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// CatalogBackend is the catalog fetcher selected by configuration together
// with the connections it owns.
type CatalogBackend struct {
	Fetcher catalog.Fetcher
	Cache   *catalogredis.CachedFetcher
	Pool    *pgxpool.Pool
	Redis   *redis.Client
}

// NewHTTPFetcher builds the catalog API fetcher behind a retrying client and
// a circuit breaker.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) *cataloghttp.Fetcher {
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.CatalogTimeout
	baseClient := httpclient.New(clientCfg)

	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "catalog",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger)
	logger.Info("circuit breaker initialized",
		slog.String("name", cbCfg.Name),
		slog.Uint64("max_requests", uint64(cbCfg.MaxRequests)),
		slog.Int("timeout_seconds", cfg.CBTimeout),
	)

	return cataloghttp.NewFetcher(cbClient, cfg.CatalogURL, logger)
}

// ConnectPostgres opens the product database, registers pool metrics with
// reg and applies pending migrations.
func ConnectPostgres(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if reg != nil {
		if err := reg.Register(database.NewPoolStatsCollector(pool, serviceName)); err != nil {
			logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
		}
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}
	return pool, nil
}

// ConnectRedis opens the catalog cache connection.
func ConnectRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	client, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	return client, nil
}

// NewCatalogBackend builds the fetcher for CATALOG_DRIVER, optionally behind
// the Redis cache.
func NewCatalogBackend(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*CatalogBackend, error) {
	b := &CatalogBackend{}

	switch cfg.CatalogDriver {
	case config.CatalogDriverPostgres:
		pool, err := ConnectPostgres(ctx, cfg, reg, logger)
		if err != nil {
			return nil, err
		}
		b.Pool = pool
		b.Fetcher = postgres.NewProductRepository(pool)
	default:
		b.Fetcher = NewHTTPFetcher(cfg, logger)
	}

	if cfg.CacheEnabled {
		client, err := ConnectRedis(ctx, cfg, logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Redis = client
		b.Cache = catalogredis.NewCachedFetcher(client, b.Fetcher, cfg.CacheTTL, logger)
		b.Fetcher = b.Cache
	}

	logger.Info("catalog backend ready",
		slog.String("driver", cfg.CatalogDriver),
		slog.Bool("cache", cfg.CacheEnabled),
	)
	return b, nil
}

// RegisterHealth adds readiness checks for the connections the backend holds.
func (b *CatalogBackend) RegisterHealth(h *health.Handler) {
	if b.Pool != nil {
		h.Register("postgres", func(ctx context.Context) error {
			return b.Pool.Ping(ctx)
		})
	}
	if b.Redis != nil {
		h.Register("redis", func(ctx context.Context) error {
			return b.Redis.Ping(ctx).Err()
		})
	}
}

// Close releases the backend's connections.
func (b *CatalogBackend) Close() error {
	var errs []error
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
	return errors.Join(errs...)
}

// catalogCheck reports the catalog as down while it holds no products.
func catalogCheck(snapshot *catalog.Snapshot) health.Checker {
	return func(context.Context) error {
		if snapshot.Len() == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	}
}
