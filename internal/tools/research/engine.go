// Package research provides the web search tool that backs the research and
// music capabilities.
package research

import (
	"context"
)

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Engine is a web search backend.
type Engine interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}
