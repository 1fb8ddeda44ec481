package protocol

// WebSocket event names pushed from server to client.
const (
	EventSession  = "session"
	EventHealth   = "health"
	EventShutdown = "shutdown"
)

// RPC method names.
const (
	MethodConnect      = "connect"
	MethodHealth       = "health"
	MethodStatus       = "status"
	MethodSessionStart = "session.start"
	MethodSessionAbort = "session.abort"
)

// Session event subtypes (in payload.type). These mirror the progress
// events the agent loop emits while a session runs.
const (
	SessionEventStarted   = "session.started"
	SessionEventIteration = "session.iteration"
	SessionEventText      = "session.text"
	SessionEventThinking  = "session.thinking"
	SessionEventAction    = "session.action"
	SessionEventError     = "session.error"
	SessionEventCompleted = "session.completed"
)
