package perception

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"personabot/internal/logging"
)

// AnthropicClient implements LLMClient for the Anthropic messages API.
type AnthropicClient struct {
	cfg        ClientConfig
	httpClient *http.Client
}

// AnthropicMessage is one message.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnthropicRequest is the messages request body.
type AnthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []AnthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
}

// AnthropicResponse is the messages response body.
type AnthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(cfg ClientConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	return &AnthropicClient{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}
}

// Complete sends a prompt and returns the completion.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *AnthropicClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return c.complete(ctx, systemPrompt, userPrompt, c.cfg.MaxRetries)
}

// Probe issues one completion without retries.
func (c *AnthropicClient) Probe(ctx context.Context) error {
	_, err := c.complete(ctx, "", ProbePrompt, 0)
	return err
}

// GetModel returns the configured model.
func (c *AnthropicClient) GetModel() string { return c.cfg.Model }

func (c *AnthropicClient) complete(ctx context.Context, systemPrompt, userPrompt string, maxRetries int) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	startTime := time.Now()
	logging.APIDebug("[Anthropic] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.cfg.Model, len(systemPrompt), len(userPrompt))

	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("API key not configured")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}

	jsonData, err := json.Marshal(AnthropicRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      systemPrompt,
		Messages:    []AnthropicMessage{{Role: "user", Content: userPrompt}},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, backoff(i)); err != nil {
				return "", err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/messages", bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.cfg.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		body, status, err := doRequest(c.httpClient, req)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusTooManyRequests || status == 529 || status >= 500 {
			lastErr = fmt.Errorf("API request failed with status %d: %s", status, truncate(body, 200))
			continue
		}
		if status != http.StatusOK {
			return "", fmt.Errorf("API request failed with status %d: %s", status, truncate(body, 500))
		}

		var resp AnthropicResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		if resp.Error != nil {
			return "", fmt.Errorf("API error: %s", resp.Error.Message)
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		out := strings.TrimSpace(sb.String())
		if out == "" {
			return "", fmt.Errorf("no completion returned")
		}
		logging.API("[Anthropic] completed in %v response_len=%d", time.Since(startTime), len(out))
		return out, nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
