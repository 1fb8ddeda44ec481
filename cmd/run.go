package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deskpilot/deskpilot/internal/agent"
	"github.com/deskpilot/deskpilot/internal/computer"
	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/internal/dispatch"
	"github.com/deskpilot/deskpilot/internal/providers"
	"github.com/deskpilot/deskpilot/internal/secrets"
	"github.com/deskpilot/deskpilot/internal/tools"
	"github.com/deskpilot/deskpilot/internal/tracing"
)

func runCmd() *cobra.Command {
	var (
		model         string
		maxIterations int
		showActions   bool
	)
	cmd := &cobra.Command{
		Use:   "run <instruction>",
		Short: "Run one agent session from the terminal",
		Long: `Run seeds a session with the given instruction and streams progress
until the session terminates. Actions execute against a simulated
display; a host embedding this module supplies a real display driver.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			if model != "" {
				cfg.Agent.Model = model
			}
			if maxIterations > 0 {
				cfg.Agent.MaxIterations = maxIterations
			}
			os.Exit(runSession(cfg, args[0], showActions))
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "override the configured model")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override the iteration budget")
	cmd.Flags().BoolVar(&showActions, "show-actions", true, "print each executed action")
	return cmd
}

func runSession(cfg *config.Config, instruction string, showActions bool) int {
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

	run := loop.Start(ctx, instruction)
	for ev := range run.Events() {
		printEvent(ev, showActions)
	}

	res := run.Result()
	switch res.Outcome {
	case agent.OutcomeCompleted:
		return 0
	case agent.OutcomeBudgetExceeded:
		fmt.Fprintf(os.Stderr, "Session stopped: iteration budget exhausted after %d iterations\n", res.Iterations)
		return 2
	case agent.OutcomeCanceled:
		fmt.Fprintln(os.Stderr, "Session canceled")
		return 130
	default:
		fmt.Fprintf(os.Stderr, "Session failed (%s): %v\n", res.Outcome, res.Err)
		return 1
	}
}

// buildLoop assembles the loop stack shared by run and gateway: the
// simulated display, the computer dispatcher, the endpoint client, and
// the process-wide dispatch serializer.
func buildLoop(cfg *config.Config) (*agent.Loop, error) {
	apiKey, err := secrets.ResolveAPIKey(cfg.Agent.APIKey)
	if err != nil {
		return nil, fmt.Errorf("no API key: %w (set one with \"deskpilot key set\")", err)
	}

	var clientOpts []providers.Option
	if cfg.Agent.APIBase != "" {
		clientOpts = append(clientOpts, providers.WithBaseURL(cfg.Agent.APIBase))
	}
	client := providers.NewAnthropicClient(apiKey, clientOpts...)

	sim := computer.NewSimulator(cfg.Display.Width, cfg.Display.Height)
	comp := tools.NewComputer(sim)
	comp.SetObserver(func(action string, params map[string]interface{}) {
		slog.Debug("executor action", "action", action)
	})

	opts := []agent.LoopOption{agent.WithSerializer(dispatch.NewSerializer())}
	if cfg.Agent.ActionsPerMinute > 0 {
		opts = append(opts, agent.WithActionBudget(
			dispatch.NewActionBudget(cfg.Agent.ActionsPerMinute, time.Minute)))
	}

	return agent.NewLoop(agent.Config{
		Model:         cfg.Agent.Model,
		MaxIterations: cfg.Agent.MaxIterations,
		MaxTokens:     cfg.Agent.MaxTokens,
		DisplayWidth:  cfg.Display.Width,
		DisplayHeight: cfg.Display.Height,
		System:        cfg.Agent.System,
	}, client, comp, opts...), nil
}

func printEvent(ev agent.Event, showActions bool) {
	switch ev.Type {
	case agent.EventIteration:
		fmt.Fprintf(os.Stderr, "--- iteration %d/%d ---\n", ev.Iteration, ev.MaxIterations)
	case agent.EventText:
		fmt.Println(ev.Content)
	case agent.EventThinking:
		fmt.Fprintf(os.Stderr, "[thinking] %s\n", ev.Content)
	case agent.EventAction:
		if showActions {
			fmt.Fprintf(os.Stderr, "  > %s\n", ev.Description)
		}
	case agent.EventError:
		fmt.Fprintf(os.Stderr, "Error: %s\n", ev.Content)
	case agent.EventCompleted:
		// Narration was already printed as text events.
		fmt.Fprintln(os.Stderr, "Session completed")
	}
}
