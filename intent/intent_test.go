package intent

import (
	"testing"
)

func TestAnalyzeActions(t *testing.T) {
	a := NewAnalyzer(nil)

	cases := []struct {
		query  string
		action Action
	}{
		{"Count all users", ActionCount},
		{"How many orders were placed?", ActionCount},
		{"Show all users", ActionSelect},
		{"List products", ActionSelect},
		{"What is the average price of products?", ActionAggregate},
		{"Find users with age greater than 30", ActionSearch},
		{"blah blah nothing here", ActionUnknown},
	}

	for _, tc := range cases {
		got := a.Analyze(tc.query)
		if got.PrimaryAction != tc.action {
			t.Errorf("Analyze(%q).PrimaryAction = %s, want %s", tc.query, got.PrimaryAction, tc.action)
		}
	}
}

func TestActionOrderCountWins(t *testing.T) {
	a := NewAnalyzer(nil)

	// "show" and "count" both present; the count rule is evaluated first.
	got := a.Analyze("show me the count of users")
	if got.PrimaryAction != ActionCount {
		t.Errorf("Expected count to win, got %s", got.PrimaryAction)
	}
}

func TestAnalyzeEntities(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Analyze("compare users with their orders")
	if len(got.TargetEntities) != 2 {
		t.Fatalf("Expected 2 entities, got %v", got.TargetEntities)
	}

	got = a.Analyze("total spend per order")
	found := false
	for _, e := range got.TargetEntities {
		if e == "orders" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected singular 'order' to resolve to orders, got %v", got.TargetEntities)
	}
}

func TestAnalyzeFilters(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Analyze("find users with age greater than 30")
	if len(got.Filters) != 1 {
		t.Fatalf("Expected 1 filter, got %v", got.Filters)
	}
	f := got.Filters[0]
	if f.Column != "age" || f.Operator != ">" || f.Value != "30" {
		t.Errorf("Unexpected filter: %+v", f)
	}

	got = a.Analyze("users where email contains gmail and age less than 25")
	if len(got.Filters) != 2 {
		t.Fatalf("Expected 2 filters, got %v", got.Filters)
	}

	got = a.Analyze("orders where status is completed")
	if len(got.Filters) != 1 {
		t.Fatalf("Expected 1 filter, got %v", got.Filters)
	}
	if got.Filters[0].Operator != "=" || got.Filters[0].Value != "completed" {
		t.Errorf("Unexpected equality filter: %+v", got.Filters[0])
	}
}

func TestAnalyzeComplexityIndicators(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Analyze("join users with orders grouped by city")
	want := map[string]bool{"multi_table": false, "joins_required": false}
	for _, ind := range got.ComplexityIndicators {
		if _, ok := want[ind]; ok {
			want[ind] = true
		}
	}
	for ind, seen := range want {
		if !seen {
			t.Errorf("Expected indicator %s in %v", ind, got.ComplexityIndicators)
		}
	}
}

func TestAnalyzeNeverFails(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Analyze("")
	if got.PrimaryAction != ActionUnknown {
		t.Errorf("Expected unknown action for empty input, got %s", got.PrimaryAction)
	}
	if len(got.TargetEntities) != 0 || len(got.Filters) != 0 {
		t.Errorf("Expected empty sets, got %+v", got)
	}
	if !got.NeedsSchemaExploration {
		t.Error("Expected schema exploration for unresolved entities")
	}
}

func TestAssessComplexity(t *testing.T) {
	a := NewAnalyzer(nil)

	low := Assess(a.Analyze("Show all users"))
	if low.Level != "low" {
		t.Errorf("Expected low complexity, got %s (score %d)", low.Level, low.Score)
	}
	if low.NeedsDataAnalysis || low.NeedsOptimization {
		t.Error("Expected no analysis or optimization for a simple select")
	}

	high := Assess(a.Analyze("sum order totals joined with users grouped by city"))
	if high.Score < 5 {
		t.Errorf("Expected score >= 5, got %d", high.Score)
	}
	if high.Level != "high" {
		t.Errorf("Expected high complexity, got %s", high.Level)
	}
	if !high.NeedsDataAnalysis || !high.NeedsOptimization {
		t.Error("Expected analysis and optimization for a complex query")
	}
}
