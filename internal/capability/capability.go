// Package capability defines the fixed set of persona capabilities: who
// runs each one (the agent profile) and the prompt it is given.
package capability

import (
	"fmt"
	"strings"
	"time"

	"personabot/internal/persona"
	"personabot/internal/types"
)

// ID identifies a capability.
type ID string

const (
	Introduce ID = "introduce"
	Research  ID = "research"
	Music     ID = "music"
	Freeform  ID = "freeform"
)

// DateLayout anchors prompts and search queries to the current day.
const DateLayout = "January 02, 2006"

// defaultMaxIter bounds the reasoning iterations of every agent.
const defaultMaxIter = 3

// Profile describes the agent that executes a capability.
type Profile struct {
	Role      string
	Goal      string
	Backstory string
	MaxIter   int
}

// Prompt is the task handed to the agent.
type Prompt struct {
	Description    string
	ExpectedOutput string
}

// Capability is one named unit of persona behavior.
type Capability struct {
	ID    ID
	Title string
	Agent Profile

	// RequiresTool marks capabilities that must have a search tool bound.
	RequiresTool bool
	// NeedsArgument marks capabilities that cannot run without an argument.
	NeedsArgument bool

	build func(arg string) Prompt
}

// Prompt renders the task for arg. Callers check NeedsArgument first; see
// Registry.Prompt.
func (c *Capability) Prompt(arg string) Prompt {
	return c.build(arg)
}

// Registry is the immutable capability table.
type Registry struct {
	byID  map[ID]*Capability
	order []ID
	date  string
}

// Build constructs the registry for p anchored at now. Build is pure: the
// same persona and timestamp always yield the same prompts.
func Build(p persona.Persona, now time.Time) *Registry {
	t := newTemplates(p, now)
	caps := []*Capability{
		{
			ID:    Introduce,
			Title: "Introduction",
			Agent: t.introduceAgent(),
			build: func(string) Prompt { return t.introducePrompt() },
		},
		{
			ID:            Research,
			Title:         "Research",
			Agent:         t.researchAgent(),
			RequiresTool:  true,
			NeedsArgument: true,
			build:         t.researchPrompt,
		},
		{
			ID:           Music,
			Title:        "Music recommendations",
			Agent:        t.musicAgent(),
			RequiresTool: true,
			build:        func(string) Prompt { return t.musicPrompt() },
		},
		{
			ID:    Freeform,
			Title: "Conversation",
			Agent: t.freeformAgent(),
			build: t.freeformPrompt,
		},
	}

	r := &Registry{byID: make(map[ID]*Capability, len(caps)), date: t.date}
	for _, c := range caps {
		r.byID[c.ID] = c
		r.order = append(r.order, c.ID)
	}
	return r
}

// Get returns the capability for id.
func (r *Registry) Get(id ID) (*Capability, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// IDs lists capabilities in menu order.
func (r *Registry) IDs() []ID {
	out := make([]ID, len(r.order))
	copy(out, r.order)
	return out
}

// Date returns the date string the prompts were anchored to.
func (r *Registry) Date() string { return r.date }

// Prompt renders the prompt for id, enforcing its argument requirement.
func (r *Registry) Prompt(id ID, arg string) (Prompt, error) {
	c, ok := r.byID[id]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", types.ErrUnknownCapability, id)
	}
	if c.NeedsArgument && strings.TrimSpace(arg) == "" {
		return Prompt{}, fmt.Errorf("%w: %s needs an argument", types.ErrCapabilityArgumentMissing, id)
	}
	return c.Prompt(arg), nil
}
