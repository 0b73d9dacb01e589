package engine

import "time"

// Step is one entry of the reasoning trace.
type Step struct {
	Phase       string    `json:"phase"`
	Description string    `json:"description"`
	Iteration   int       `json:"iteration"`
	Timestamp   time.Time `json:"timestamp"`
}

// reasoningTrace accumulates reasoning steps for a single request.
type reasoningTrace struct {
	steps []Step
}

func (t *reasoningTrace) add(iteration int, phase, description string) {
	t.steps = append(t.steps, Step{
		Phase:       phase,
		Description: description,
		Iteration:   iteration,
		Timestamp:   time.Now(),
	})
}
