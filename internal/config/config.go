package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all process-wide configuration. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	// Backend configuration
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY" required:"true"`
	Model        string `envconfig:"LEADSCOUT_MODEL" default:"googleai/gemini-2.0-flash"`

	// Tool provider configuration. ProviderCommand spawns a local MCP server;
	// ProviderEndpoint connects to a remote one. Command wins when both are set.
	ProviderCommand    string   `envconfig:"PROVIDER_COMMAND" default:"npx"`
	ProviderArgs       []string `envconfig:"PROVIDER_ARGS" default:"-y,@brightdata/mcp"`
	ProviderEndpoint   string   `envconfig:"PROVIDER_ENDPOINT" default:""`
	BrightDataAPIToken string   `envconfig:"BRIGHTDATA_API_TOKEN" default:""`
	WebUnlockerZone    string   `envconfig:"WEB_UNLOCKER_ZONE" default:"mcp_unlocker"`
	DenyTools          []string `envconfig:"DENY_TOOLS" default:"extract"`

	// Run bounds
	RunBudgetSeconds       int `envconfig:"RUN_BUDGET_SECONDS" default:"45"`
	ToolTimeoutSeconds     int `envconfig:"TOOL_TIMEOUT_SECONDS" default:"30"`
	MaxDecisions           int `envconfig:"MAX_DECISIONS" default:"10"`
	SimplifiedMaxDecisions int `envconfig:"SIMPLIFIED_MAX_DECISIONS" default:"2"`

	// Decision engine
	DefaultTool        string `envconfig:"DEFAULT_TOOL" default:"search_engine"`
	RulesFile          string `envconfig:"RULES_FILE" default:""`
	SelectionCacheFile string `envconfig:"SELECTION_CACHE_FILE" default:""`
	CacheTTLMinutes    int    `envconfig:"CACHE_TTL_MINUTES" default:"60"`

	// Observability configuration
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`   // Log level: debug, info, warn, error
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"` // Pretty print logs (for development)
}

// Load reads configuration from environment variables. It first attempts to
// load from a .env file if one exists, then from the environment.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables without
// attempting to load a .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.ProviderCommand == "" && cfg.ProviderEndpoint == "" {
		return nil, fmt.Errorf("PROVIDER_COMMAND or PROVIDER_ENDPOINT is required")
	}
	if cfg.MaxDecisions <= 0 {
		return nil, fmt.Errorf("MAX_DECISIONS must be positive")
	}
	if cfg.RunBudgetSeconds <= 0 {
		return nil, fmt.Errorf("RUN_BUDGET_SECONDS must be positive")
	}

	return &cfg, nil
}

// ProviderEnv returns the environment entries passed to a spawned provider
// process.
func (c *Config) ProviderEnv() []string {
	var env []string
	if c.BrightDataAPIToken != "" {
		env = append(env, "API_TOKEN="+c.BrightDataAPIToken)
	}
	if c.WebUnlockerZone != "" {
		env = append(env, "WEB_UNLOCKER_ZONE="+c.WebUnlockerZone)
	}
	return env
}
