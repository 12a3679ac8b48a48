package research

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Serper queries the serper.dev Google search API.
type Serper struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

// NewSerper creates the engine with the public endpoint.
func NewSerper(apiKey string, client *http.Client) *Serper {
	if client == nil {
		client = http.DefaultClient
	}
	return &Serper{APIKey: apiKey, BaseURL: "https://google.serper.dev", Client: client}
}

func (s *Serper) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search performs one query.
func (s *Serper) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("serper API key not configured")
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: maxResults})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}

	var parsed serperResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	results := make([]SearchResult, 0, len(parsed.Organic))
	for _, o := range parsed.Organic {
		if len(results) >= maxResults {
			break
		}
		results = append(results, SearchResult{Title: o.Title, URL: o.Link, Snippet: o.Snippet})
	}
	return results, nil
}
