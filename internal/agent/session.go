package agent

import (
	"github.com/deskpilot/deskpilot/internal/providers"
	"github.com/google/uuid"
)

// Session holds the state of one bounded loop run: the append-only
// transcript, the iteration counter, and the tool schema for the
// session's display. A session lives exactly as long as its run and is
// never persisted.
//
// Only the owning loop goroutine touches a Session; it needs no lock.
type Session struct {
	ID string

	transcript    []providers.Message
	iterations    int
	maxIterations int
	tool          providers.ComputerTool
}

// NewSession seeds a session with one user message.
func NewSession(seed string, maxIterations int, tool providers.ComputerTool) *Session {
	return &Session{
		ID:            uuid.NewString()[:8],
		maxIterations: maxIterations,
		tool:          tool,
		transcript: []providers.Message{{
			Role:    providers.RoleUser,
			Content: []providers.Block{providers.TextBlock(seed)},
		}},
	}
}

// Append adds one turn. Prior turns are never mutated or removed.
func (s *Session) Append(msg providers.Message) {
	s.transcript = append(s.transcript, msg)
}

// Messages returns a copy of the transcript for an endpoint call.
func (s *Session) Messages() []providers.Message {
	out := make([]providers.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Tool returns the computer tool schema declared for this session.
func (s *Session) Tool() providers.ComputerTool { return s.tool }

// Iterations returns how many iterations have started.
func (s *Session) Iterations() int { return s.iterations }

// NextIteration increments the counter and reports whether the budget
// still allows another iteration.
func (s *Session) NextIteration() bool {
	if s.iterations >= s.maxIterations {
		return false
	}
	s.iterations++
	return true
}
