package perception

import (
	"fmt"

	"personabot/internal/config"
)

func requireKey(env, key string) func() error {
	return func() error {
		if key == "" {
			return fmt.Errorf("%s not set", env)
		}
		return nil
	}
}

func clientConfig(p config.ProviderConfig, llm config.LLMConfig) ClientConfig {
	return ClientConfig{
		APIKey:      p.APIKey,
		BaseURL:     p.BaseURL,
		Model:       p.Model,
		Temperature: p.Temperature,
		Timeout:     llm.GetTimeout(),
		MaxRetries:  3,
	}
}

// CandidatesFromConfig returns the interactive selection order: OpenAI
// (needs a key), then the local Ollama runtime, then Gemini when a key is set.
func CandidatesFromConfig(llm config.LLMConfig) []Candidate {
	var out []Candidate

	if !llm.OpenAI.Disabled {
		p := llm.OpenAI
		out = append(out, Candidate{
			Provider:     ProviderOpenAI,
			Model:        p.Model,
			Temperature:  p.Temperature,
			Prerequisite: requireKey("OPENAI_API_KEY", p.APIKey),
			Factory: func() (LLMClient, error) {
				return NewOpenAIClient(clientConfig(p, llm)), nil
			},
		})
	}

	if !llm.Ollama.Disabled {
		p := llm.Ollama
		out = append(out, Candidate{
			Provider:    ProviderOllama,
			Model:       p.Model,
			Temperature: p.Temperature,
			Factory: func() (LLMClient, error) {
				if p.BaseURL == "" {
					return nil, fmt.Errorf("ollama base URL not configured")
				}
				return NewOllamaClient(clientConfig(p, llm)), nil
			},
		})
	}

	if !llm.Gemini.Disabled && llm.Gemini.APIKey != "" {
		p := llm.Gemini
		out = append(out, Candidate{
			Provider:    ProviderGemini,
			Model:       p.Model,
			Temperature: p.Temperature,
			Factory: func() (LLMClient, error) {
				return NewGeminiClient(clientConfig(p, llm)), nil
			},
		})
	}

	return out
}

// BridgeCandidates returns the single Anthropic candidate used by the
// message bridge.
func BridgeCandidates(llm config.LLMConfig) []Candidate {
	p := llm.Anthropic
	return []Candidate{{
		Provider:     ProviderAnthropic,
		Model:        p.Model,
		Temperature:  p.Temperature,
		Prerequisite: requireKey("ANTHROPIC_API_KEY", p.APIKey),
		Factory: func() (LLMClient, error) {
			return NewAnthropicClient(clientConfig(p, llm)), nil
		},
	}}
}
