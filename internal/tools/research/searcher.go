package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"personabot/internal/logging"
	"personabot/internal/tools"
)

// Searcher runs queries through an Engine and caches the results.
type Searcher struct {
	engine     Engine
	cache      *gocache.Cache
	maxResults int
}

// NewSearcher wraps engine with a TTL cache.
func NewSearcher(engine Engine, ttl time.Duration, maxResults int) *Searcher {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Searcher{
		engine:     engine,
		cache:      gocache.New(ttl, 2*ttl),
		maxResults: maxResults,
	}
}

// Engine returns the backing engine name.
func (s *Searcher) Engine() string { return s.engine.Name() }

// Search returns up to limit results for query. limit <= 0 uses the default.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}

	key := fmt.Sprintf("%s|%d|%s", s.engine.Name(), limit, strings.ToLower(query))
	if cached, ok := s.cache.Get(key); ok {
		logging.ToolsDebug("search cache hit: %q", query)
		return cached.([]SearchResult), nil
	}

	timer := logging.StartTimer(logging.CategoryTools, "search "+s.engine.Name())
	results, err := s.engine.Search(ctx, query, limit)
	timer.StopWithThreshold(10 * time.Second)
	if err != nil {
		logging.ToolsWarn("search failed: engine=%s query=%q err=%v", s.engine.Name(), query, err)
		return nil, fmt.Errorf("search failed: %w", err)
	}

	s.cache.SetDefault(key, results)
	logging.Tools("search completed: %d results for %q", len(results), query)
	return results, nil
}

// CacheSize returns the number of cached queries.
func (s *Searcher) CacheSize() int { return s.cache.ItemCount() }

// WebSearchTool returns the web_search tool backed by s.
func WebSearchTool(s *Searcher) *tools.Tool {
	return &tools.Tool{
		Name:        "web_search",
		Description: "Search the web for recent information. Argument: the search query.",
		Category:    tools.CategoryResearch,
		Priority:    75,
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			query, _ := args["query"].(string)
			limit := 0
			if mr, ok := args["max_results"].(int); ok {
				limit = mr
			}
			results, err := s.Search(ctx, query, limit)
			if err != nil {
				return "", err
			}
			return FormatResults(query, results), nil
		},
		Schema: tools.ToolSchema{
			Required: []string{"query"},
			Properties: map[string]tools.Property{
				"query":       {Type: "string", Description: "The search query"},
				"max_results": {Type: "integer", Description: "Maximum number of results", Default: 5},
			},
		},
	}
}

// FormatResults renders results as markdown for the model.
func FormatResults(query string, results []SearchResult) string {
	if len(results) == 0 {
		return "No results found for: " + query
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Search Results for: %s\n\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "## %d. %s\n", i+1, r.Title)
		fmt.Fprintf(&sb, "URL: %s\n", r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&sb, "\n%s\n", r.Snippet)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RegisterAll registers the research tools with the given registry.
func RegisterAll(registry *tools.Registry, s *Searcher) error {
	return registry.Register(WebSearchTool(s))
}
