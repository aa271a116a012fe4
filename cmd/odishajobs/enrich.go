package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/odishajobs/internal/enrich"
)

var enrichLimit int

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich stored records that have not been AI-processed",
	Long:  "Queues records with is_ai_processed = false for summary extraction and resource generation, then waits for the queue to drain.",
	RunE:  runEnrich,
}

func init() {
	enrichCmd.Flags().IntVar(&enrichLimit, "limit", 50, "maximum number of records to enrich")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoad()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, buildOptions{enrich: true})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	queued, err := enrich.Requeue(ctx, a.store, a.queue, enrichLimit, logger)
	if err != nil {
		a.Close(ctx)
		logger.Error("requeue failed", "error", err)
		os.Exit(1)
	}
	logger.Info("records queued for enrichment", "count", queued)

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Enrichment.Timeout*2)
	defer cancel()
	a.Close(drainCtx)

	st := a.queue.Stats()
	logger.Info("enrichment complete", "succeeded", st.Succeeded, "failed", st.Failed, "dropped", st.Dropped)
	return nil
}
