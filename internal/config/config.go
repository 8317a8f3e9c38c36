package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the orchestrator.
type Config struct {
	// Server configuration
	HTTPPort int    `env:"AGOR_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"AGOR_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// AgentsFile points to a JSON file holding the supervisor-mode agent
	// roster. Empty disables supervisor mode; DAG runs still work.
	AgentsFile string `env:"AGOR_AGENTS_FILE"`

	// Redis configuration; Redis backs the event bus and conversation
	// store when enabled, otherwise in-memory adapters are used.
	Redis RedisConfig

	// LLM configuration
	LLM LLMConfig

	// Engine limits
	Engine EngineConfig

	// Stream normalization
	Stream StreamConfig

	// Run pool configuration
	Runs RunConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	// Conversation history retention
	ThreadTTL time.Duration `env:"REDIS_THREAD_TTL" envDefault:"168h"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider string `env:"LLM_PROVIDER" envDefault:"anthropic"`
	APIKey   string `env:"LLM_API_KEY"`

	// Default model settings
	DefaultModel       string  `env:"LLM_DEFAULT_MODEL" envDefault:"claude-3-5-sonnet-20241022"`
	DefaultTemperature float64 `env:"LLM_DEFAULT_TEMPERATURE" envDefault:"0.7"`
	DefaultMaxTokens   int     `env:"LLM_DEFAULT_MAX_TOKENS" envDefault:"8192"`
}

// EngineConfig bounds graph execution.
type EngineConfig struct {
	SupervisorMaxSteps int `env:"ENGINE_SUPERVISOR_MAX_STEPS" envDefault:"12"`
	DAGMaxSteps        int `env:"ENGINE_DAG_MAX_STEPS" envDefault:"48"`
	AgentMaxTurns      int `env:"ENGINE_AGENT_MAX_TURNS" envDefault:"8"`
}

// StreamConfig tunes event normalization.
type StreamConfig struct {
	MarkupTags        []string `env:"STREAM_MARKUP_TAGS" envDefault:"tool_call" envSeparator:","`
	SuppressReasoning bool     `env:"STREAM_SUPPRESS_REASONING" envDefault:"true"`
}

// RunConfig bounds run concurrency.
type RunConfig struct {
	PoolSize            int           `env:"RUN_POOL_SIZE" envDefault:"16"`
	HealthCheckInterval time.Duration `env:"RUN_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// TimeoutConfig holds timeout configuration.
type TimeoutConfig struct {
	RunExecutionTimeout time.Duration `env:"TIMEOUT_RUN_EXECUTION" envDefault:"600s"`
	ShutdownTimeout     time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}

	switch c.LLM.Provider {
	case "anthropic":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM API key is required for provider anthropic")
		}
	case "fake":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	if c.Engine.SupervisorMaxSteps < 1 || c.Engine.DAGMaxSteps < 1 || c.Engine.AgentMaxTurns < 1 {
		return fmt.Errorf("engine step limits must be at least 1")
	}

	if c.Runs.PoolSize < 1 {
		return fmt.Errorf("run pool size must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address.
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
