package sqlgen

import "testing"

func TestBuildKnownQueries(t *testing.T) {
	b := NewBuilder()

	cases := []struct {
		query string
		want  string
	}{
		{"Show all users", "SELECT * FROM users LIMIT 100"},
		{"Count all users", "SELECT COUNT(*) as user_count FROM users"},
		{"Find users with age greater than 30", "SELECT * FROM users WHERE age > 30 LIMIT 100"},
		{"What is the average price of products?", "SELECT AVG(price) as average_price FROM products"},
		{"How many orders are there?", "SELECT COUNT(*) as order_count FROM orders"},
		{"Show products with price less than 50", "SELECT * FROM products WHERE price < 50 LIMIT 100"},
		{"Find users with email containing gmail", "SELECT * FROM users WHERE email LIKE '%gmail%' LIMIT 100"},
		{"Show completed orders", "SELECT * FROM orders WHERE status = 'completed' LIMIT 100"},
		{"List premium users", "SELECT * FROM users WHERE subscription_type = 'premium' LIMIT 100"},
		{"What is the maximum rating of reviews?", "SELECT MAX(rating) as max_rating FROM reviews"},
	}

	for _, tc := range cases {
		if got := b.Build(tc.query, nil); got != tc.want {
			t.Errorf("Build(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestBuildStatusKeywordsReachFilter(t *testing.T) {
	b := NewBuilder()

	cases := []struct {
		query string
		want  string
	}{
		// No comparison word present; the status literal alone must select
		// the filter branch.
		{"Show completed orders", "SELECT * FROM orders WHERE status = 'completed' LIMIT 100"},
		{"List premium users", "SELECT * FROM users WHERE subscription_type = 'premium' LIMIT 100"},
		{"Which users have a subscription?", "SELECT * FROM users WHERE subscription_type = 'premium' LIMIT 100"},
		// The filter branch outranks show-all when both vocabularies match.
		{"Show all completed orders", "SELECT * FROM orders WHERE status = 'completed' LIMIT 100"},
	}

	for _, tc := range cases {
		if got := b.Build(tc.query, nil); got != tc.want {
			t.Errorf("Build(%q) = %q, want %q", tc.query, got, tc.want)
		}
	}
}

func TestBuildUsesCandidateTables(t *testing.T) {
	b := NewBuilder()

	// The query names no table, so the explored candidate decides.
	if got := b.Build("everything please", []string{"reviews"}); got != "SELECT * FROM reviews LIMIT 100" {
		t.Errorf("Expected candidate table used, got %q", got)
	}

	// A table named in the query outranks the candidates.
	if got := b.Build("all products please", []string{"reviews"}); got != "SELECT * FROM products LIMIT 100" {
		t.Errorf("Expected query mention to win, got %q", got)
	}
}

func TestBuildFallsBackToDefaultTable(t *testing.T) {
	b := NewBuilder()
	if got := b.Build("", nil); got != "SELECT * FROM users LIMIT 100" {
		t.Errorf("Expected default table fallback, got %q", got)
	}
}

func TestBuildNameProjections(t *testing.T) {
	b := NewBuilder()
	if got := b.Build("user names", nil); got != "SELECT first_name, last_name, email FROM users LIMIT 100" {
		t.Errorf("Expected user name projection, got %q", got)
	}
	if got := b.Build("product names", nil); got != "SELECT name, price, brand FROM products LIMIT 100" {
		t.Errorf("Expected product name projection, got %q", got)
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	b := NewBuilder()

	once := b.Optimize("SELECT * FROM users")
	if once != "SELECT * FROM users LIMIT 100" {
		t.Errorf("Expected LIMIT appended, got %q", once)
	}
	if twice := b.Optimize(once); twice != once {
		t.Errorf("Expected Optimize to be idempotent, got %q", twice)
	}
}

func TestOptimizeLeavesAggregatesAlone(t *testing.T) {
	b := NewBuilder()
	sql := "SELECT COUNT(*) as user_count FROM users"
	if got := b.Optimize(sql); got != sql {
		t.Errorf("Expected aggregate untouched, got %q", got)
	}
}
