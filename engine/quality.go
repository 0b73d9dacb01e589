package engine

import "github.com/queryforge/queryforge/tool"

// refinementThreshold is the confidence floor below which an iteration's
// results trigger another loop pass.
const refinementThreshold = 0.7

// Quality summarizes an iteration's tool results.
type Quality struct {
	Confidence   float64 `json:"confidence"`
	Completeness float64 `json:"completeness"`
}

// assessQuality scores an iteration. The baseline is a fixed score; a failed
// tool drags confidence below the refinement threshold so the loop retries.
func assessQuality(results tool.Results) Quality {
	q := Quality{Confidence: 0.8, Completeness: 0.9}
	for _, r := range results {
		if r.Failed() {
			q.Confidence = 0.5
			q.Completeness = 0.6
			break
		}
	}
	return q
}

// NeedsRefinement reports whether the loop should run another iteration.
func (q Quality) NeedsRefinement() bool {
	return q.Confidence < refinementThreshold
}
