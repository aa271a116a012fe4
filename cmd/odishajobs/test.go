package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/odishajobs/internal/config"
	"github.com/amishk599/odishajobs/internal/model"
	"github.com/amishk599/odishajobs/internal/preview"
)

var testPlain bool

var testCmd = &cobra.Command{
	Use:   "test [source]",
	Short: "Preview what a source would yield without storing anything",
	Long: `Fetches a source listing and shows the parsed candidates.

Without arguments an interactive picker lists the enabled sources; the
chosen source is fetched and its candidates can be browsed, with the
notification text and an AI summary preview loaded on demand.

With a source name, or with --plain, the candidates are printed as a table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTest,
}

func init() {
	testCmd.Flags().BoolVar(&testPlain, "plain", false, "print tables instead of the interactive browser")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, logger := mustLoad()
	ctx := context.Background()

	a, err := buildApp(ctx, cfg, logger, buildOptions{dryRun: true})
	if err != nil {
		logger.Error("failed to set up", "error", err)
		os.Exit(1)
	}
	defer a.Close(ctx)

	sources := cfg.EnabledSources()
	timeout := cfg.HTTP.SourceTimeout + cfg.Renderer.NavigationTimeout

	if len(args) == 1 || testPlain {
		names := a.scheduler.Sources()
		if len(args) == 1 {
			names = []string{args[0]}
		}
		for _, name := range names {
			fetchCtx, cancel := context.WithTimeout(ctx, timeout)
			candidates, err := a.scheduler.TestSource(fetchCtx, name)
			cancel()
			if err != nil {
				logger.Error("source fetch failed", "source", name, "error", err)
				if errors.Is(err, model.ErrUnknownSource) {
					os.Exit(1)
				}
				continue
			}
			fmt.Println(preview.RenderTable(name, candidates))
		}
		return nil
	}

	return browseLoop(a, sources, timeout)
}

// browseLoop alternates between the source picker and the candidate browser
// until the user quits.
func browseLoop(a *app, sources []config.SourceConfig, timeout time.Duration) error {
	for {
		idx, err := preview.RunSourcePicker(sources)
		if err != nil {
			return fmt.Errorf("source picker: %w", err)
		}
		if idx == preview.PickerQuit {
			return nil
		}
		name := sources[idx].Name

		candidates, err := preview.RunLoader(name, timeout, func(ctx context.Context) ([]model.Candidate, error) {
			return a.scheduler.TestSource(ctx, name)
		})
		if errors.Is(err, preview.ErrCancelled) {
			continue
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			continue
		}

		quit, err := preview.RunBrowser(name, candidates, a.content, a.normalizer)
		if err != nil {
			return fmt.Errorf("browser: %w", err)
		}
		if quit {
			return nil
		}
	}
}
