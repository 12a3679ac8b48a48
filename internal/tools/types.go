// Package tools provides the tool definitions agents can call while working
// on a task. Agents see a tool's name and description; the crew runner
// executes it with ExecuteTool.
package tools

import (
	"context"
	"errors"
)

var (
	ErrToolNotFound          = errors.New("no such tool")
	ErrToolNameEmpty         = errors.New("tool has no name")
	ErrToolExecuteNil        = errors.New("tool has no execute func")
	ErrToolAlreadyRegistered = errors.New("tool name already taken")
	ErrMissingRequiredArg    = errors.New("required tool argument missing")
	ErrInvalidArgType        = errors.New("tool argument has wrong type")
)

// ToolCategory classifies tools.
type ToolCategory string

const (
	// CategoryResearch covers web search.
	CategoryResearch ToolCategory = "/research"

	// CategoryGeneral is for tools usable by any agent.
	CategoryGeneral ToolCategory = "/general"
)

// Property describes a single parameter property.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// ToolSchema defines the expected tool arguments.
type ToolSchema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// ExecuteFunc is the signature for tool execution.
type ExecuteFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool defines a tool an agent can use.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description explains what the tool does. Shown to the model.
	Description string

	Category ToolCategory

	Execute ExecuteFunc

	Schema ToolSchema

	// Priority orders tools in listings (default 50, higher first).
	Priority int
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}

// ToolResult wraps the result of tool execution with metadata.
type ToolResult struct {
	ToolName   string
	Result     string
	Error      error
	DurationMs int64
}
