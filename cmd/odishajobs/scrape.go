package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/odishajobs/internal/scheduler"
)

var scrapeDryRun bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape [source]",
	Short: "Run a single scrape pass and exit",
	Long: `Runs every enabled source once (or only the named source), waits for
background enrichment to finish and exits. With --dry-run nothing is
stored, enriched or announced.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeDryRun, "dry-run", false, "discover and ingest without persisting")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, buildOptions{dryRun: scrapeDryRun, enrich: true})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	var (
		failed  bool
		summary *scheduler.RunSummary
	)
	if len(args) == 1 {
		res, err := a.scheduler.RunOne(ctx, args[0])
		if err != nil {
			logger.Error("scrape failed", "source", args[0], "error", err)
			failed = true
		} else {
			logger.Info("scrape complete",
				"source", res.Source,
				"fetched", res.Fetched,
				"duplicates", res.Duplicates,
				"created", len(res.Created),
				"failed", res.Failed,
			)
		}
	} else {
		s, err := a.scheduler.RunAll(ctx)
		if err != nil && !isCancelled(err) {
			logger.Error("scrape failed", "error", err)
			failed = true
		}
		summary = &s
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Enrichment.Timeout)
	defer cancel()
	a.Close(drainCtx)

	if summary != nil {
		logSummary(logger, *summary, a.queue)
	}
	if failed {
		os.Exit(1)
	}
	return nil
}
