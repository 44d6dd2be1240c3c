// Command storefront serves the storefront HTTP API, runs the terminal
// storefront and seeds the product database.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/config"
	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

var envFiles []string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront catalog and cart",
	Long: `Storefront fetches a product catalog and keeps a shopping cart per shopper.

Available commands:
  serve  - Run the HTTP API
  browse - Open the terminal storefront
  seed   - Copy the catalog API into PostgreSQL`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return pkgconfig.LoadDotEnv(envFiles...)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "Env files to load (existing variables win)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig reads the storefront configuration after env files are loaded.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("storefront failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
