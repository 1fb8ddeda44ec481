// Package agent implements the automation control loop: it replays the
// growing transcript to the model endpoint, executes requested computer
// actions strictly sequentially, folds results back into the transcript,
// and repeats under a hard iteration budget.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/deskpilot/deskpilot/internal/dispatch"
	"github.com/deskpilot/deskpilot/internal/providers"
	"github.com/deskpilot/deskpilot/internal/tools"
)

// Endpoint is the model endpoint surface the loop consumes. Implemented
// by *providers.AnthropicClient; extracted for testability.
type Endpoint interface {
	CreateMessage(ctx context.Context, req *providers.MessagesRequest) (*providers.MessagesResponse, error)
}

// Config configures one loop instance.
type Config struct {
	Model         string
	MaxIterations int // must be >= 1
	MaxTokens     int
	DisplayWidth  int // pixels
	DisplayHeight int // pixels
	System        string // optional system instruction
}

// Loop drives sessions against one endpoint and one computer dispatcher.
// A Loop may run many sessions; each Run gets its own Session, transcript
// and iteration counter.
type Loop struct {
	cfg        Config
	endpoint   Endpoint
	computer   *tools.Computer
	serializer *dispatch.Serializer
	budget     *dispatch.ActionBudget
	tracer     trace.Tracer
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSerializer shares a process-wide dispatch serializer across loops.
func WithSerializer(s *dispatch.Serializer) LoopOption {
	return func(l *Loop) { l.serializer = s }
}

// WithActionBudget caps actions per session over a sliding window.
func WithActionBudget(b *dispatch.ActionBudget) LoopOption {
	return func(l *Loop) { l.budget = b }
}

// NewLoop creates a loop controller.
func NewLoop(cfg Config, endpoint Endpoint, comp *tools.Computer, opts ...LoopOption) *Loop {
	if cfg.MaxIterations < 1 {
		cfg.MaxIterations = 1
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	l := &Loop{
		cfg:        cfg,
		endpoint:   endpoint,
		computer:   comp,
		serializer: dispatch.NewSerializer(),
		tracer:     otel.Tracer("deskpilot/agent"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run is a handle on one in-flight session.
type Run struct {
	SessionID string

	events chan Event
	done   chan struct{}
	result RunResult
}

// Events returns the ordered progress-event stream. The channel is
// closed when the session terminates or the run is cancelled.
func (r *Run) Events() <-chan Event { return r.events }

// Result blocks until the session terminates and returns the outcome.
func (r *Run) Result() RunResult {
	<-r.done
	return r.result
}

// Start seeds a session with one user message and runs the loop in a
// producer goroutine. Cancel ctx to abort at the next suspension point;
// after cancellation no further events are emitted and no partial round
// is appended.
func (l *Loop) Start(ctx context.Context, seed string) *Run {
	tool := providers.ComputerToolFor(l.cfg.DisplayWidth, l.cfg.DisplayHeight)
	sess := NewSession(seed, l.cfg.MaxIterations, tool)

	run := &Run{
		SessionID: sess.ID,
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
	}

	go func() {
		defer close(run.done)
		defer close(run.events)
		run.result = l.run(ctx, sess, run)
		slog.Info("session finished",
			"session", sess.ID,
			"outcome", string(run.result.Outcome),
			"iterations", run.result.Iterations,
		)
	}()
	return run
}

// emit delivers one progress event unless the run has been cancelled.
// Reports whether the event was delivered.
func (l *Loop) emit(ctx context.Context, run *Run, ev Event) bool {
	select {
	case <-ctx.Done():
		return false
	case run.events <- ev:
		return true
	}
}

func (l *Loop) run(ctx context.Context, sess *Session, run *Run) RunResult {
	ctx, span := l.tracer.Start(ctx, "agent.run",
		trace.WithAttributes(
			attribute.String("session.id", sess.ID),
			attribute.String("model", l.cfg.Model),
		))
	defer span.End()

	for sess.NextIteration() {
		if !l.emit(ctx, run, Event{
			Type:          EventIteration,
			Iteration:     sess.Iterations(),
			MaxIterations: l.cfg.MaxIterations,
		}) {
			return l.canceled(ctx, sess)
		}

		resp, err := l.callEndpoint(ctx, sess)
		if err != nil {
			if ctx.Err() != nil {
				return l.canceled(ctx, sess)
			}
			return l.fatal(ctx, run, sess, err)
		}

		// Append the reply verbatim so later tool-result turns reference
		// valid invocation ids.
		sess.Append(providers.Message{Role: providers.RoleAssistant, Content: resp.Content})

		var invocations []providers.Block
		for _, block := range resp.Content {
			switch block.Type {
			case providers.BlockText:
				if !l.emit(ctx, run, Event{Type: EventText, Content: block.Text}) {
					return l.canceled(ctx, sess)
				}
			case providers.BlockThinking:
				if !l.emit(ctx, run, Event{Type: EventThinking, Content: block.Thinking}) {
					return l.canceled(ctx, sess)
				}
			case providers.BlockToolUse:
				invocations = append(invocations, block)
			}
		}

		finalText := narration(resp.Content)

		if len(invocations) == 0 {
			if !l.emit(ctx, run, Event{Type: EventCompleted, Content: finalText}) {
				return l.canceled(ctx, sess)
			}
			return RunResult{Outcome: OutcomeCompleted, Iterations: sess.Iterations(), FinalText: finalText}
		}

		results, err := l.executeRound(ctx, run, sess, invocations)
		if err != nil {
			// Cancellation observed mid-round: the partial round is
			// discarded, never appended.
			return l.canceled(ctx, sess)
		}
		sess.Append(providers.Message{Role: providers.RoleUser, Content: results})

		// The model may finish narrating before an action's effect is
		// observed: an end-of-turn signal terminates the session even
		// though results were just produced this round.
		if resp.StopReason == providers.StopEndTurn {
			if !l.emit(ctx, run, Event{Type: EventCompleted, Content: finalText}) {
				return l.canceled(ctx, sess)
			}
			return RunResult{Outcome: OutcomeCompleted, Iterations: sess.Iterations(), FinalText: finalText}
		}
	}

	err := fmt.Errorf("iteration budget exhausted after %d iterations", sess.Iterations())
	l.emit(ctx, run, Event{Type: EventError, Content: err.Error()})
	return RunResult{Outcome: OutcomeBudgetExceeded, Err: err, Iterations: sess.Iterations()}
}

func (l *Loop) callEndpoint(ctx context.Context, sess *Session) (*providers.MessagesResponse, error) {
	ctx, span := l.tracer.Start(ctx, "endpoint.call",
		trace.WithAttributes(attribute.Int("iteration", sess.Iterations())))
	defer span.End()

	tool := sess.Tool()
	return l.endpoint.CreateMessage(ctx, &providers.MessagesRequest{
		Model:     l.cfg.Model,
		MaxTokens: l.cfg.MaxTokens,
		Messages:  sess.Messages(),
		Tools:     []providers.ComputerTool{tool},
		System:    l.cfg.System,
	})
}

// executeRound dispatches each invocation strictly sequentially, since
// they share one physical pointer and keyboard, and returns one ordered
// tool_result block per invocation. A failed action becomes an error
// result; only cancellation aborts the round.
func (l *Loop) executeRound(ctx context.Context, run *Run, sess *Session, invocations []providers.Block) ([]providers.Block, error) {
	results := make([]providers.Block, 0, len(invocations))

	for _, inv := range invocations {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if !l.emit(ctx, run, Event{
			Type:        EventAction,
			Description: tools.Describe(inv.Name, inv.Input),
			Data:        inv.Input,
		}) {
			return nil, ctx.Err()
		}

		var res *tools.Result
		if l.budget != nil {
			if err := l.budget.Allow(sess.ID); err != nil {
				res = tools.ErrorResult(err.Error())
			}
		}
		if res == nil {
			dispatchCtx, span := l.tracer.Start(ctx, "action.dispatch",
				trace.WithAttributes(attribute.String("action", inv.Name)))
			err := l.serializer.Do(dispatchCtx, func() {
				res = l.computer.Dispatch(dispatchCtx, inv.Name, inv.Input)
			})
			span.End()
			if err != nil {
				// Cancelled while waiting for the global dispatch slot.
				return nil, err
			}
		}

		results = append(results, toBlock(inv.ID, res))
	}
	return results, nil
}

func toBlock(invocationID string, res *tools.Result) providers.Block {
	if res.Image != nil {
		return providers.ToolResultImage(invocationID, res.Image.MediaType, res.Image.Data)
	}
	return providers.ToolResultText(invocationID, res.ForModel, res.IsError)
}

func (l *Loop) fatal(ctx context.Context, run *Run, sess *Session, err error) RunResult {
	outcome := OutcomeTransportError
	var protoErr *providers.ProtocolError
	if errors.As(err, &protoErr) {
		outcome = OutcomeProtocolError
	}
	l.emit(ctx, run, Event{Type: EventError, Content: err.Error()})
	return RunResult{Outcome: outcome, Err: err, Iterations: sess.Iterations()}
}

func (l *Loop) canceled(ctx context.Context, sess *Session) RunResult {
	return RunResult{Outcome: OutcomeCanceled, Err: ctx.Err(), Iterations: sess.Iterations()}
}

// narration concatenates the text blocks of one assistant reply.
func narration(blocks []providers.Block) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == providers.BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}
