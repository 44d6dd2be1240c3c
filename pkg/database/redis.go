package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis client defaults. The catalog cache is read on startup only, so short
// timeouts are preferred over waiting on a slow server.
const (
	defaultRedisDialTimeout = 2 * time.Second
	defaultRedisIOTimeout   = time.Second
	defaultRedisPingTimeout = 3 * time.Second
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// DialTimeout and IOTimeout fall back to the package defaults when zero.
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

func (c RedisConfig) options() *redis.Options {
	dial, io := c.DialTimeout, c.IOTimeout
	if dial <= 0 {
		dial = defaultRedisDialTimeout
	}
	if io <= 0 {
		io = defaultRedisIOTimeout
	}
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  dial,
		ReadTimeout:  io,
		WriteTimeout: io,
	}
}

// NewRedisClient creates a Redis client and verifies the connection with a
// bounded PING. The client is closed if the ping fails.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(cfg.options())

	pingCtx, cancel := context.WithTimeout(ctx, defaultRedisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}
