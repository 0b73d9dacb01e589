package engine

import (
	"github.com/queryforge/queryforge/intent"
	"github.com/queryforge/queryforge/tool"
)

// Strategy names the execution approach chosen during planning.
type Strategy string

const (
	StrategyDirect    Strategy = "direct_execution"
	StrategyPlanned   Strategy = "planned_execution"
	StrategyIterative Strategy = "iterative_refinement"
)

// Plan is the tool order for one iteration. Order is fixed: exploration comes
// before building, analysis and optimization in the middle, validation always
// last.
type Plan struct {
	Tools    []tool.Type `json:"tools"`
	Strategy Strategy    `json:"strategy"`
}

func buildPlan(in intent.Intent, cx intent.Complexity) Plan {
	var tools []tool.Type
	if in.NeedsSchemaExploration {
		tools = append(tools, tool.TypeSchemaExplorer)
	}
	tools = append(tools, tool.TypeQueryBuilder)
	if cx.NeedsDataAnalysis {
		tools = append(tools, tool.TypeDataAnalyzer)
	}
	if cx.NeedsOptimization {
		tools = append(tools, tool.TypeOptimizer)
	}
	tools = append(tools, tool.TypeResultValidator)

	return Plan{Tools: tools, Strategy: strategyFor(cx)}
}

func strategyFor(cx intent.Complexity) Strategy {
	switch cx.Level {
	case "high":
		return StrategyIterative
	case "medium":
		return StrategyPlanned
	default:
		return StrategyDirect
	}
}
