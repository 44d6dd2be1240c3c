package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/pkg/logger"
)

var seedTimeout time.Duration

// seedCmd copies the catalog API into PostgreSQL
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Copy the catalog API into PostgreSQL",
	Long: `Fetch CATALOG_URL and upsert every product into the products table.

Migrations are applied first. When the catalog cache is enabled the cached
catalog is invalidated afterwards.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().DurationVar(&seedTimeout, "timeout", 2*time.Minute, "Overall seed timeout")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New("storefront-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(cmd.Context(), seedTimeout)
	defer cancel()

	n, err := app.Seed(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info("seed complete", slog.Int("products", n))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
	return nil
}
