package agent

// Outcome is the terminal state of one session.
type Outcome string

const (
	// OutcomeCompleted means the model signalled end of turn, or replied
	// without requesting any tool use.
	OutcomeCompleted Outcome = "completed"

	// OutcomeBudgetExceeded means the iteration cap was reached without a
	// completion signal. Non-destructive: all prior turns remain
	// inspectable on the session.
	OutcomeBudgetExceeded Outcome = "budget_exceeded"

	// OutcomeTransportError means an endpoint call failed. Never retried;
	// the caller starts a fresh session.
	OutcomeTransportError Outcome = "transport_error"

	// OutcomeProtocolError means the endpoint reply could not be decoded.
	OutcomeProtocolError Outcome = "protocol_error"

	// OutcomeCanceled means the caller cancelled the run at a suspension
	// point. No partial round is appended to the transcript.
	OutcomeCanceled Outcome = "canceled"
)

// RunResult is the terminal outcome of one session run.
type RunResult struct {
	Outcome    Outcome
	Err        error  // set for transport/protocol/cancel outcomes
	Iterations int    // iterations actually performed
	FinalText  string // narration from the last assistant turn
}
