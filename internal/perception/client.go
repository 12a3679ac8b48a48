// Package perception owns the language model backends: the HTTP/SDK clients
// for each provider and the selector that picks a live one at start-up.
package perception

import (
	"context"
	"time"

	"personabot/internal/types"
)

// LLMClient is the completion interface every provider implements.
type LLMClient = types.LLMClient

// Provider names a backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// ProbePrompt is the short prompt sent by liveness probes.
const ProbePrompt = "Hello, this is a connection test."

// defaultSystemPrompt is used when a caller passes an empty system prompt.
const defaultSystemPrompt = "You are a helpful assistant."

// ClientConfig holds the fixed parameters of one provider client.
type ClientConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
	// MaxRetries applies to rate-limit and transient failures of regular calls.
	// Probes never retry.
	MaxRetries int
	MaxTokens  int
}

// Prober is implemented by clients that can run a single-attempt liveness check.
type Prober interface {
	Probe(ctx context.Context) error
}

// withDefaultTimeout applies timeout when ctx carries no deadline.
func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// backoff returns the wait before retry attempt i (1-based).
func backoff(i int) time.Duration {
	return time.Duration(1<<uint(i-1)) * time.Second
}

// sleepCtx waits d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
