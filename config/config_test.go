package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Engine.MaxIterations != 5 {
		t.Errorf("Engine.MaxIterations = %d, want 5", cfg.Engine.MaxIterations)
	}
	if cfg.Engine.ConversationCapacity != 10 {
		t.Errorf("Engine.ConversationCapacity = %d, want 10", cfg.Engine.ConversationCapacity)
	}
	if cfg.Store.Backend != "demo" {
		t.Errorf("Store.Backend = %q, want demo", cfg.Store.Backend)
	}
	if cfg.History.Backend != "none" {
		t.Errorf("History.Backend = %q, want none", cfg.History.Backend)
	}
	if cfg.MCP.Mode != "local" {
		t.Errorf("MCP.Mode = %q, want local", cfg.MCP.Mode)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("QUERYFORGE_SERVER_ADDR", ":9090")
	t.Setenv("QUERYFORGE_ENGINE_MAX_ITERATIONS", "3")
	t.Setenv("QUERYFORGE_STORE_BACKEND", "postgres")
	t.Setenv("QUERYFORGE_STORE_POSTGRES_DB", "analytics")
	t.Setenv("QUERYFORGE_HISTORY_BACKEND", "redis")
	t.Setenv("QUERYFORGE_HISTORY_REDIS_TTL", "24h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Engine.MaxIterations != 3 {
		t.Errorf("Engine.MaxIterations = %d, want 3", cfg.Engine.MaxIterations)
	}
	if cfg.Store.PostgresDB != "analytics" {
		t.Errorf("Store.PostgresDB = %q, want analytics", cfg.Store.PostgresDB)
	}
	if cfg.History.RedisTTL != 24*time.Hour {
		t.Errorf("History.RedisTTL = %v, want 24h", cfg.History.RedisTTL)
	}
}

func TestValidateRejectsBadBackend(t *testing.T) {
	t.Setenv("QUERYFORGE_STORE_BACKEND", "oracle")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected validation error for unknown store backend")
	}
	if !strings.Contains(err.Error(), "store.backend") {
		t.Errorf("Expected store.backend in error, got %v", err)
	}
}

func TestValidateRequiresCommandForCommandMode(t *testing.T) {
	t.Setenv("QUERYFORGE_MCP_MODE", "command")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected validation error for command mode without command")
	}
	if !strings.Contains(err.Error(), "mcp.command") {
		t.Errorf("Expected mcp.command in error, got %v", err)
	}
}

func TestValidateRequiresEndpointForHTTPMode(t *testing.T) {
	t.Setenv("QUERYFORGE_MCP_MODE", "http")

	_, err := Load()
	if err == nil {
		t.Fatal("Expected validation error for http mode without endpoint")
	}
}

func TestValidatorAccumulatesErrors(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("name", "").
		RequirePositive("count", 0).
		ValidatePort("port", 70000).
		ValidateOneOf("mode", "weird", "a", "b")

	if !v.HasErrors() {
		t.Fatal("Expected validation errors")
	}
	if got := len(v.Errors()); got != 4 {
		t.Errorf("Expected 4 errors, got %d", got)
	}
	if v.Error() == nil {
		t.Error("Expected combined error")
	}
}

func TestValidatorPasses(t *testing.T) {
	v := NewValidator()
	v.RequireNonEmpty("name", "x").
		RequirePositive("count", 1).
		ValidatePort("port", 8080).
		ValidateDBNumber("db", 0)

	if v.HasErrors() {
		t.Fatalf("Unexpected errors: %v", v.Errors())
	}
	if v.Error() != nil {
		t.Errorf("Expected nil error, got %v", v.Error())
	}
}
