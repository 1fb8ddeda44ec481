package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/agent"
	"github.com/deskpilot/deskpilot/internal/bus"
	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/internal/gateway"
	"github.com/deskpilot/deskpilot/internal/tracing"
)

func gatewayCmd() *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Serve the WebSocket control gateway",
		Long: `Gateway exposes session control over a local WebSocket: clients start
and abort sessions and receive the progress-event stream. Sessions run
against a simulated display; a host embedding this module supplies a
real display driver.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if host != "" {
				cfg.Gateway.Host = host
			}
			if port > 0 {
				cfg.Gateway.Port = port
			}
			os.Exit(runGateway(cfg))
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "override the bind host")
	cmd.Flags().IntVar(&port, "port", 0, "override the bind port")
	return cmd
}

func runGateway(cfg *config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing tracing: %v\n", err)
		return 1
	}
	defer shutdownTracing(context.Background())

	loop, err := buildLoop(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	tracker := agent.NewTracker()
	events := bus.New()
	server := gateway.NewServer(cfg.Gateway, loop, tracker, events)

	// Hot-reload the auth token on config changes. Loop parameters stay
	// fixed for the process lifetime; restart to apply those.
	watcher, err := config.NewWatcher(flagConfig)
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else {
		watcher.OnChange(func(next *config.Config) {
			server.UpdateToken(next.Gateway.Token)
			slog.Info("config reloaded", "path", flagConfig)
		})
		if err := watcher.Start(); err != nil {
			slog.Warn("config watcher failed to start", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	defer func() {
		for _, id := range tracker.AbortAll() {
			slog.Info("aborted session on shutdown", "session_id", id)
		}
	}()

	if err := server.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Gateway error: %v\n", err)
		return 1
	}
	return 0
}
