package engine

import (
	"fmt"

	"github.com/queryforge/queryforge/memory"
)

// contextAnalysis summarizes the conversation window for the THINK phase. It
// is advisory: it feeds the trace and the response context, never the SQL.
type contextAnalysis struct {
	HasContext    bool     `json:"has_context"`
	ContextType   string   `json:"context_type"`
	RecentQueries []string `json:"recent_queries,omitempty"`
	Continuity    float64  `json:"context_continuity,omitempty"`
	FollowUps     []string `json:"suggested_follow_ups,omitempty"`
}

func analyzeContext(conversation *memory.Conversation) contextAnalysis {
	recent := conversation.Recent(3)
	if len(recent) == 0 {
		return contextAnalysis{HasContext: false, ContextType: "none"}
	}

	queries := make([]string, len(recent))
	for i, e := range recent {
		queries[i] = e.Query
	}
	return contextAnalysis{
		HasContext:    true,
		ContextType:   "conversational",
		RecentQueries: queries,
		Continuity:    0.7,
		FollowUps: []string{
			"Show more details",
			"Analyze trends",
			"Compare with other data",
		},
	}
}

func summaryResponse(query string, iterations int) string {
	return fmt.Sprintf("I've analyzed your query %q through %d iterations of reasoning and acting. Here's what I found:", query, iterations)
}

func detailedExplanation() string {
	return "**Analysis Complete**\n\nI processed your query through multiple reasoning phases, using various tools to ensure accuracy and optimization."
}

func contextualSuggestions() []string {
	return []string{
		"Explore related data patterns",
		"Analyze trends over time",
		"Compare with other segments",
		"Deep dive into specific metrics",
	}
}
