package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured sources",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, _ := mustLoad()

	fmt.Printf("%-16s %-10s %-8s %-10s %s\n", "SOURCE", "ORG", "KIND", "ENABLED", "URL")
	for _, s := range cfg.Sources {
		enabled := "yes"
		if !s.Enabled {
			enabled = "no"
		}
		fmt.Printf("%-16s %-10s %-8s %-10s %s\n", s.Name, s.Organization, s.Kind, enabled, s.URL)
	}
	fmt.Printf("\n%d source(s), %d enabled, schedule %q\n", len(cfg.Sources), len(cfg.EnabledSources()), cfg.Schedule)
	return nil
}
