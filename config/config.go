// Package config loads and validates the service configuration from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full service configuration. Every field maps to an
// environment variable under the QUERYFORGE_ prefix.
type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Engine  EngineConfig  `envPrefix:"ENGINE_"`
	Store   StoreConfig   `envPrefix:"STORE_"`
	History HistoryConfig `envPrefix:"HISTORY_"`
	MCP     MCPConfig     `envPrefix:"MCP_"`
	Tracing TracingConfig `envPrefix:"TRACING_"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

// EngineConfig controls the reasoning loop.
type EngineConfig struct {
	MaxIterations        int `env:"MAX_ITERATIONS" envDefault:"5"`
	ConversationCapacity int `env:"CONVERSATION_CAPACITY" envDefault:"10"`
}

// StoreConfig selects the query execution backend.
type StoreConfig struct {
	// Backend is "demo" or "postgres".
	Backend string `env:"BACKEND" envDefault:"demo"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"queryforge"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
}

// HistoryConfig selects the conversation history backend.
type HistoryConfig struct {
	// Backend is "none", "memory", "postgres", "redis" or "mongo".
	Backend string `env:"BACKEND" envDefault:"none"`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	RedisKey      string        `env:"REDIS_KEY" envDefault:"queryforge:history"`
	RedisTTL      time.Duration `env:"REDIS_TTL" envDefault:"0"`

	MongoURI        string `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB         string `env:"MONGODB_DB" envDefault:"queryforge"`
	MongoCollection string `env:"MONGODB_COLLECTION" envDefault:"conversation_history"`
}

// MCPConfig controls the optional MCP capability connection.
type MCPConfig struct {
	// Mode is "off", "local", "command" or "http".
	Mode     string   `env:"MODE" envDefault:"local"`
	Endpoint string   `env:"ENDPOINT"`
	Command  string   `env:"COMMAND"`
	Args     []string `env:"ARGS" envSeparator:" "`
}

// TracingConfig controls OpenTelemetry exporters.
type TracingConfig struct {
	Disable        bool   `env:"DISABLE" envDefault:"false"`
	ServiceName    string `env:"SERVICE_NAME" envDefault:"queryforge"`
	ServiceVersion string `env:"SERVICE_VERSION"`
	Environment    string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load parses the environment into a Config and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "QUERYFORGE_"}); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints on the configuration.
func (c *Config) Validate() error {
	v := NewValidator()

	v.RequireNonEmpty("server.addr", c.Server.Addr)
	v.RequirePositive("engine.maxIterations", c.Engine.MaxIterations)
	v.RequirePositive("engine.conversationCapacity", c.Engine.ConversationCapacity)
	v.ValidateOneOf("store.backend", c.Store.Backend, "demo", "postgres")
	v.ValidateOneOf("history.backend", c.History.Backend, "none", "memory", "postgres", "redis", "mongo")
	v.ValidateOneOf("mcp.mode", c.MCP.Mode, "off", "local", "command", "http")

	if c.Store.Backend == "postgres" || c.History.Backend == "postgres" {
		v.RequireNonEmpty("store.postgresHost", c.Store.PostgresHost)
		v.ValidatePort("store.postgresPort", c.Store.PostgresPort)
		v.RequireNonEmpty("store.postgresUser", c.Store.PostgresUser)
		v.RequireNonEmpty("store.postgresDB", c.Store.PostgresDB)
		v.ValidateOneOf("store.postgresSSLMode", c.Store.PostgresSSLMode,
			"disable", "require", "verify-ca", "verify-full")
	}
	if c.History.Backend == "redis" {
		v.RequireNonEmpty("history.redisAddr", c.History.RedisAddr)
		v.ValidateDBNumber("history.redisDB", c.History.RedisDB)
		v.RequireNonEmpty("history.redisKey", c.History.RedisKey)
	}
	if c.History.Backend == "mongo" {
		v.RequireNonEmpty("history.mongoURI", c.History.MongoURI)
		v.RequireNonEmpty("history.mongoDB", c.History.MongoDB)
		v.RequireNonEmpty("history.mongoCollection", c.History.MongoCollection)
	}
	switch c.MCP.Mode {
	case "command":
		v.RequireNonEmpty("mcp.command", c.MCP.Command)
	case "http":
		v.RequireNonEmpty("mcp.endpoint", c.MCP.Endpoint)
	}

	return v.Error()
}
