package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scraping daemon",
	Long:  "Runs every enabled source once, then on the configured schedule; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoad()

	logger.Info("config loaded",
		"schedule", cfg.Schedule,
		"sources", len(cfg.EnabledSources()),
		"store", cfg.Store.Driver,
		"ai", cfg.AI.Enabled,
		"resources", cfg.Resources.Mode,
		"notification", cfg.Notification.Type,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, buildOptions{enrich: true})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	runErr := a.scheduler.Run(ctx)

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Enrichment.Timeout)
	defer cancel()
	a.Close(drainCtx)

	if runErr != nil {
		logger.Error("scheduler error", "error", runErr)
		os.Exit(1)
	}
	logger.Info("goodbye")
	return nil
}
