package config

import (
	"fmt"
	"time"

	"personabot/internal/types"
)

// LLMConfig lists the provider candidates. Selection order is OpenAI,
// then Ollama, then Gemini; Anthropic is reserved for bridge mode.
type LLMConfig struct {
	OpenAI    ProviderConfig `yaml:"openai" mapstructure:"openai"`
	Ollama    ProviderConfig `yaml:"ollama" mapstructure:"ollama"`
	Gemini    ProviderConfig `yaml:"gemini" mapstructure:"gemini"`
	Anthropic ProviderConfig `yaml:"anthropic" mapstructure:"anthropic"`

	// ProbeTimeout bounds each liveness probe.
	ProbeTimeout string `yaml:"probe_timeout" mapstructure:"probe_timeout"`
	// Timeout bounds regular completions.
	Timeout string `yaml:"timeout" mapstructure:"timeout"`
}

// ProviderConfig configures one provider candidate.
type ProviderConfig struct {
	APIKey      string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	Disabled    bool    `yaml:"disabled" mapstructure:"disabled"`
}

// DefaultLLMConfig returns the stock candidate parameters.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		OpenAI: ProviderConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
		},
		Ollama: ProviderConfig{
			BaseURL:     "http://localhost:11434",
			Model:       "llama3:8b",
			Temperature: 0.2,
		},
		Gemini: ProviderConfig{
			Model:       "gemini-2.5-flash",
			Temperature: 0.2,
		},
		Anthropic: ProviderConfig{
			BaseURL:     "https://api.anthropic.com/v1",
			Model:       "claude-3-haiku-20240307",
			Temperature: 0.2,
		},
		ProbeTimeout: "30s",
		Timeout:      "120s",
	}
}

// GetProbeTimeout returns the liveness probe timeout.
func (c LLMConfig) GetProbeTimeout() time.Duration {
	return parseDuration(c.ProbeTimeout, 30*time.Second)
}

// GetTimeout returns the completion timeout.
func (c LLMConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 120*time.Second)
}

// Validate checks provider parameters.
func (c LLMConfig) Validate() error {
	for name, p := range map[string]ProviderConfig{
		"openai":    c.OpenAI,
		"ollama":    c.Ollama,
		"gemini":    c.Gemini,
		"anthropic": c.Anthropic,
	} {
		if p.Temperature < 0 || p.Temperature > 2 {
			return fmt.Errorf("llm.%s.temperature out of range: %v", name, p.Temperature)
		}
	}
	return nil
}

// ValidateBridge checks the credential/domain pair the bridge needs.
// Both are required together; missing either is fatal.
func (c *Config) ValidateBridge() error {
	var missing []string
	if c.LLM.Anthropic.APIKey == "" {
		missing = append(missing, "ANTHROPIC_API_KEY")
	}
	if c.Bridge.Domain == "" {
		missing = append(missing, "DOMAIN_NAME")
	}
	if len(missing) > 0 {
		return &types.MissingCredentialError{Keys: missing}
	}
	return nil
}
