// Package config loads the workflow configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderCohere    = "cohere"
)

// Config is assembled once at startup and passed to the agent constructors;
// it is never mutated afterwards.
type Config struct {
	Provider        string `envconfig:"LLM_PROVIDER" default:"openai"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `envconfig:"OPENAI_BASE_URL"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	CohereAPIKey    string `envconfig:"COHERE_API_KEY"`
	TavilyAPIKey    string `envconfig:"TAVILY_API_KEY"`

	Model       string  `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.2"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"2048"`

	// MaxTurns caps each chat stage.
	MaxTurns int `envconfig:"FLOW_MAX_TURNS" default:"10"`
	// OutputDir receives rendered charts and assembled reports.
	OutputDir string `envconfig:"OUTPUT_DIR" default:"output"`
	// PlanPath points at the YAML workflow plan.
	PlanPath string `envconfig:"PLAN_PATH" default:"plan.yaml"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderCohere:
	default:
		return fmt.Errorf("config: unsupported provider %q", c.Provider)
	}
	if c.APIKey() == "" {
		return fmt.Errorf("config: missing API key for provider %q", c.Provider)
	}
	return nil
}

// APIKey returns the credential matching the configured provider.
func (c Config) APIKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderCohere:
		return c.CohereAPIKey
	default:
		return c.OpenAIAPIKey
	}
}
