// Package cmd implements the deskpilot CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/config"
)

var (
	flagConfig   string
	flagLogLevel string
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deskpilot",
		Short: "Drive the local desktop with a computer-use model",
		Long: `deskpilot runs bounded agent sessions: it streams the desktop to a
computer-use model endpoint, executes the pointer and keyboard actions
the model requests, and reports progress as it goes.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(flagLogLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "config file path")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(runCmd())
	cmd.AddCommand(gatewayCmd())
	cmd.AddCommand(configCmd())
	cmd.AddCommand(keyCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// loadConfig loads the config file, falling back to defaults when the
// file does not exist yet.
func loadConfig() *config.Config {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Default()
		}
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
