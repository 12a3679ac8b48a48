package research

import (
	"net/http"

	"personabot/internal/config"
)

// FromConfig builds the searcher selected by cfg.Search.
func FromConfig(cfg *config.Config) *Searcher {
	client := &http.Client{Timeout: cfg.GetSearchTimeout()}

	var engine Engine
	switch cfg.Search.Engine {
	case "serper":
		engine = NewSerper(cfg.Search.SerperAPIKey, client)
	default:
		engine = NewDuckDuckGo(client)
	}
	return NewSearcher(engine, cfg.GetSearchCacheTTL(), cfg.Search.MaxResults)
}
