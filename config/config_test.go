package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Error loading config: %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Expect openai default provider, but got %q", cfg.Provider)
	}
	if cfg.MaxTurns != 10 {
		t.Errorf("Expect default max turns 10, but got %d", cfg.MaxTurns)
	}
	if cfg.APIKey() != "sk-test" {
		t.Errorf("Expect openai key, but got %q", cfg.APIKey())
	}
}

func TestLoadRejectsMissingKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("Expect missing key error")
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "bedrock")
	if _, err := Load(); err == nil {
		t.Fatal("Expect unsupported provider error")
	}
}
