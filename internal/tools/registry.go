package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"personabot/internal/logging"
)

const defaultPriority = 50

// Registry indexes the tools available to agents by name. Safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Tool)}
}

// Register validates tool and adds it. Names are unique.
func (r *Registry) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("register tool: %w", err)
	}
	if tool.Priority == 0 {
		tool.Priority = defaultPriority
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[tool.Name]; dup {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}
	r.byName[tool.Name] = tool

	logging.ToolsDebug("tool %s registered (%s, priority %d)", tool.Name, tool.Category, tool.Priority)
	return nil
}

// Lookup returns the named tool or ErrToolNotFound.
func (r *Registry) Lookup(name string) (*Tool, error) {
	r.mu.RLock()
	t, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return t, nil
}

// InCategory lists the tools of one category, highest priority first and
// by name within a priority.
func (r *Registry) InCategory(category ToolCategory) []*Tool {
	r.mu.RLock()
	var out []*Tool
	for _, t := range r.byName {
		if t.Category == category {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Best returns the preferred tool of a category.
func (r *Registry) Best(category ToolCategory) (*Tool, error) {
	list := r.InCategory(category)
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: no %s tool", ErrToolNotFound, category)
	}
	return list[0], nil
}

// Names lists every registered tool, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Execute runs the named tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return ExecuteTool(ctx, t, args)
}

// ExecuteTool checks args against the tool schema, then runs it. The
// returned result is non-nil whenever the tool itself was reached.
func ExecuteTool(ctx context.Context, tool *Tool, args map[string]any) (*ToolResult, error) {
	start := time.Now()
	res := &ToolResult{ToolName: tool.Name}

	if err := checkArgs(tool.Schema, args); err != nil {
		res.Error = err
		res.DurationMs = time.Since(start).Milliseconds()
		return res, err
	}

	out, err := tool.Execute(ctx, args)
	res.Result, res.Error = out, err
	res.DurationMs = time.Since(start).Milliseconds()
	logging.ToolsDebug("tool %s finished in %dms ok=%v", tool.Name, res.DurationMs, err == nil)
	return res, err
}

func checkArgs(schema ToolSchema, args map[string]any) error {
	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredArg, name)
		}
	}
	for name, prop := range schema.Properties {
		v, ok := args[name]
		if !ok || prop.Type != "string" {
			continue
		}
		if _, isString := v.(string); !isString {
			return fmt.Errorf("%w: %s wants a string, got %T", ErrInvalidArgType, name, v)
		}
	}
	return nil
}
