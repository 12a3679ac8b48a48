package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"personabot/internal/logging"
)

// Executor runs commands.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (*ExecutionResult, error)
	// LookPath reports whether binary can be run.
	LookPath(binary string) (string, error)
}

// ExecutorConfig holds executor defaults.
type ExecutorConfig struct {
	DefaultTimeout time.Duration
	MaxOutputBytes int64
}

// DefaultExecutorConfig returns defaults sized for speech engines, which
// can take a while on first model load.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		DefaultTimeout: 10 * time.Minute,
		MaxOutputBytes: 1 << 20,
	}
}

// DirectExecutor runs commands on the host with os/exec.
type DirectExecutor struct {
	config ExecutorConfig
}

// NewDirectExecutor creates an executor with default config.
func NewDirectExecutor() *DirectExecutor {
	return NewDirectExecutorWithConfig(DefaultExecutorConfig())
}

// NewDirectExecutorWithConfig creates an executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultExecutorConfig().DefaultTimeout
	}
	if config.MaxOutputBytes <= 0 {
		config.MaxOutputBytes = DefaultExecutorConfig().MaxOutputBytes
	}
	return &DirectExecutor{config: config}
}

// LookPath resolves binary on PATH.
func (e *DirectExecutor) LookPath(binary string) (string, error) {
	return exec.LookPath(binary)
}

// Execute runs cmd. A non-zero exit is reported in the result, not as an
// error; the error is reserved for commands that could not be started.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	if cmd.Binary == "" {
		return nil, errors.New("binary is required")
	}

	timer := logging.StartTimer(logging.CategoryTactile, "exec "+cmd.Binary)
	defer timer.Stop()
	logging.TactileDebug("Executing: %s", cmd.CommandString())

	timeout := e.config.DefaultTimeout
	if cmd.Timeout > 0 {
		timeout = cmd.Timeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	if len(cmd.Environment) > 0 {
		execCmd.Env = append(os.Environ(), cmd.Environment...)
	}
	if cmd.Stdin != "" {
		execCmd.Stdin = strings.NewReader(cmd.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdout := &limitedWriter{w: &stdoutBuf, max: e.config.MaxOutputBytes}
	stderr := &limitedWriter{w: &stderrBuf, max: e.config.MaxOutputBytes}
	execCmd.Stdout = stdout
	execCmd.Stderr = stderr

	result := &ExecutionResult{ExitCode: -1}
	start := time.Now()
	err := execCmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()
	result.Truncated = stdout.truncated || stderr.truncated

	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(execCtx.Err(), context.DeadlineExceeded):
			result.Killed = true
			result.KillReason = fmt.Sprintf("timeout after %s", timeout)
			logging.Get(logging.CategoryTactile).Warn("Command killed (timeout): %s after %s", cmd.Binary, timeout)
		case errors.Is(execCtx.Err(), context.Canceled):
			result.Killed = true
			result.KillReason = "context canceled"
		case errors.As(err, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		default:
			logging.TactileError("Command failed to start: %s - %v", cmd.Binary, err)
			return result, fmt.Errorf("run %s: %w", cmd.Binary, err)
		}
	} else {
		result.ExitCode = 0
	}

	logging.Tactile("Command completed: %s -> exit=%d, duration=%s", cmd.Binary, result.ExitCode, result.Duration)
	return result, nil
}

// limitedWriter discards output past max bytes.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		p = p[:remaining]
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	if err != nil {
		return written, err
	}
	return n, nil
}
