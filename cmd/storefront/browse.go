package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/pkg/logger"
)

var browseLogFile string

// browseCmd opens the terminal storefront
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Open the terminal storefront",
	Long: `Open the terminal storefront: browse and search the catalog and manage a cart.

Logs never go to the terminal; pass --log-file to keep them.`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseLogFile, "log-file", "", "Write logs to this file instead of discarding them")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var w io.Writer = io.Discard
	if browseLogFile != "" {
		f, err := os.OpenFile(browseLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	log := logger.NewWithWriter("storefront-tui", cfg.LogLevel, w)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer cancel()

	browser, err := app.NewBrowser(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := browser.Run(ctx); err != nil {
		log.Error("terminal storefront error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
