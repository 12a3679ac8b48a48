package perception

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"personabot/internal/logging"
)

// GeminiClient implements LLMClient through the Google GenAI SDK.
// The SDK client is created lazily on first use.
type GeminiClient struct {
	cfg ClientConfig

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(cfg ClientConfig) *GeminiClient {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &GeminiClient{cfg: cfg}
}

func (c *GeminiClient) sdk(ctx context.Context) (*genai.Client, error) {
	c.once.Do(func() {
		if c.cfg.APIKey == "" {
			c.initErr = fmt.Errorf("API key not configured")
			return
		}
		c.client, c.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  c.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return c.client, c.initErr
}

// Complete sends a prompt and returns the completion.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system instruction.
func (c *GeminiClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	logging.APIDebug("[Gemini] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.cfg.Model, len(systemPrompt), len(userPrompt))

	client, err := c.sdk(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create genai client: %w", err)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	temp := float32(c.cfg.Temperature)
	genCfg := &genai.GenerateContentConfig{
		Temperature:       &temp,
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}
	if c.cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}

	resp, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(userPrompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("no completion returned")
	}
	logging.API("[Gemini] completed in %v response_len=%d", time.Since(startTime), len(out))
	return out, nil
}

// GetModel returns the configured model.
func (c *GeminiClient) GetModel() string { return c.cfg.Model }
