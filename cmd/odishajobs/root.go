package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/amishk599/odishajobs/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "odishajobs",
	Short: "Odisha government job notification scraper",
	Long:  "odishajobs scrapes Odisha recruitment portals, stores new notifications and enriches them with AI summaries and exam-preparation resources.",
	// Default to `start` so that `odishajobs` with no args runs the daemon.
	RunE:          runStart,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file (default: ODISHAJOBS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindEnv("config", "ODISHAJOBS_CONFIG")
	_ = viper.BindEnv("debug", "ODISHAJOBS_DEBUG")
	viper.SetDefault("config", "config.yaml")
}

// loadConfig resolves the config path and parses it.
// Priority: --config flag > ODISHAJOBS_CONFIG env var > "./config.yaml"
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetString("config"))
}

func setupLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if viper.GetBool("debug") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// mustLoad sets up logging and config for a command, exiting on a bad config.
func mustLoad() (*config.Config, *slog.Logger) {
	logger := setupLogger()
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "path", viper.GetString("config"), "error", err)
		os.Exit(1)
	}
	return cfg, logger
}
