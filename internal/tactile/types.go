// Package tactile runs the external engines (recorder, transcriber,
// synthesizer, player) as child processes.
package tactile

import (
	"strings"
	"time"
)

// Command is a single process invocation.
type Command struct {
	// Binary is the executable to run (e.g. "arecord", "whisper").
	Binary string

	// Arguments are the command-line arguments.
	Arguments []string

	// WorkingDirectory is the directory to execute in. Empty means the
	// current directory.
	WorkingDirectory string

	// Environment adds KEY=VALUE pairs to the inherited environment.
	Environment []string

	// Stdin provides input to the command's standard input.
	Stdin string

	// Timeout bounds the run. Zero uses the executor default.
	Timeout time.Duration
}

// CommandString returns the full command for display and logging.
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	parts := make([]string, 0, len(c.Arguments)+1)
	parts = append(parts, c.Binary)
	for _, arg := range c.Arguments {
		if strings.ContainsAny(arg, " \t\"'") {
			parts = append(parts, `"`+strings.ReplaceAll(arg, `"`, `\"`)+`"`)
		} else {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// ExecutionResult is the outcome of running a Command.
type ExecutionResult struct {
	// ExitCode is the process exit code (-1 if it never exited).
	ExitCode int

	Stdout string
	Stderr string

	Duration time.Duration

	// Killed is set when the timeout or context ended the process.
	Killed     bool
	KillReason string

	// Truncated is set when output exceeded the capture limit.
	Truncated bool
}

// Succeeded reports a clean zero exit.
func (r *ExecutionResult) Succeeded() bool {
	return r != nil && !r.Killed && r.ExitCode == 0
}

// Output returns stderr when present, otherwise stdout, for error messages.
func (r *ExecutionResult) Output() string {
	if s := strings.TrimSpace(r.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(r.Stdout)
}
