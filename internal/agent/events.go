package agent

// EventType discriminates progress events emitted while a session runs.
type EventType string

const (
	// EventIteration marks the start of a loop iteration.
	EventIteration EventType = "iteration"

	// EventText carries assistant narration. Informational only.
	EventText EventType = "text"

	// EventThinking carries assistant reasoning. Informational only.
	EventThinking EventType = "thinking"

	// EventAction announces one tool action about to be executed.
	EventAction EventType = "action"

	// EventError is the single terminal event of a failed session.
	EventError EventType = "error"

	// EventCompleted is the single terminal event of a successful session.
	EventCompleted EventType = "completed"
)

// Event is one progress event. Events form an ordered, incrementally
// produced sequence so a caller can render partial output before the
// session terminates.
type Event struct {
	Type EventType `json:"type"`

	// iteration
	Iteration     int `json:"iteration,omitempty"`
	MaxIterations int `json:"maxIterations,omitempty"`

	// text / thinking / error / completed
	Content string `json:"content,omitempty"`

	// action
	Description string                 `json:"description,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}
