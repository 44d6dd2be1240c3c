package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryBackoff_ExponentialWithJitter(t *testing.T) {
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		minExpected := time.Duration(float64(base) * (1 - retryJitterFraction))
		maxExpected := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, minExpected)
			assert.LessOrEqual(t, d, maxExpected)
		}
	}
}

func TestRetryBackoff_NegativeAttemptUsesBase(t *testing.T) {
	d := retryBackoff(-3)
	assert.LessOrEqual(t, d, time.Duration(float64(defaultRetryBaseWait)*(1+retryJitterFraction)))
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "db", Port: 5432, User: "storefront", Password: "p@ss/word",
		DBName: "storefront", SSLMode: "disable",
	}

	assert.Equal(t, "postgres://storefront:p%40ss%2Fword@db:5432/storefront?sslmode=disable", cfg.DSN())
}

func TestSleepCtx_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sleepCtx(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewPostgresPool_InvalidConfig(t *testing.T) {
	cfg := &PostgresConfig{Host: "localhost", Port: 5432, SSLMode: "bogus-mode"}

	_, err := NewPostgresPool(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse postgres config")
}
