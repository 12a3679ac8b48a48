package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"personabot/internal/logging"
)

// Renderer turns markdown replies (tables, lists, links) into terminal
// text. A nil glamour renderer means plain passthrough.
type Renderer struct {
	tr *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at width. plain disables
// markdown rendering, for piped output and tests.
func NewRenderer(width int, plain bool) *Renderer {
	if plain {
		return &Renderer{}
	}
	if width <= 0 {
		width = 100
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		logging.Get(logging.CategorySession).Warn("markdown renderer unavailable: %v", err)
		return &Renderer{}
	}
	return &Renderer{tr: tr}
}

// Render returns text rendered for the terminal. Rendering failures fall
// back to the raw text.
func (r *Renderer) Render(text string) string {
	if r == nil || r.tr == nil {
		return strings.TrimSpace(text)
	}
	out, err := r.tr.Render(text)
	if err != nil {
		return strings.TrimSpace(text)
	}
	return strings.Trim(out, "\n")
}
