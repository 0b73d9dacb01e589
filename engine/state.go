package engine

// State names the phase the reasoning loop is in. It is reported in responses
// and reasoning traces.
type State string

const (
	StateThinking  State = "thinking"
	StatePlanning  State = "planning"
	StateExecuting State = "executing"
	StateObserving State = "observing"
	StateRefining  State = "refining"
	StateCompleted State = "completed"
	StateError     State = "error"
)
