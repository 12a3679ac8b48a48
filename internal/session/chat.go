// Package session runs the operator-facing text modes: the interactive
// chat loop, the one-shot ask and the system self-test.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"personabot/internal/logging"
	"personabot/internal/types"
)

// Terminal is the operator side of a chat.
type Terminal interface {
	ReadLine(prompt string) (string, error)
	Notice(format string, args ...any)
	Reply(text string)
	Info(kind types.InfoKind)
	Error(err error)
}

// ChatConfig wires a Chat.
type ChatConfig struct {
	Responder types.Responder
	Terminal  Terminal

	// Prompt is shown before each read. Defaults to "You: ".
	Prompt string
	// Farewell is printed when the chat ends.
	Farewell string
	// MaxHistory bounds the kept turn history. Defaults to 100.
	MaxHistory int
}

// Turn records one chat exchange.
type Turn struct {
	Input    string
	Reply    types.Reply
	Err      error
	Duration time.Duration
}

// Chat is the blocking read-respond loop. Turns never overlap.
type Chat struct {
	cfg ChatConfig

	mu      sync.RWMutex
	history []Turn
}

// NewChat validates cfg and creates a chat.
func NewChat(cfg ChatConfig) (*Chat, error) {
	if cfg.Responder == nil || cfg.Terminal == nil {
		return nil, errors.New("chat requires a responder and a terminal")
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "You: "
	}
	if cfg.MaxHistory <= 0 {
		cfg.MaxHistory = 100
	}
	return &Chat{cfg: cfg}, nil
}

// Run reads lines until an exit command or end of input. Cancellation is
// checked between turns and returned as the context error.
func (c *Chat) Run(ctx context.Context) error {
	logging.Session("chat started")
	defer logging.Session("chat ended after %d turns", len(c.History()))

	for {
		if err := ctx.Err(); err != nil {
			c.farewell()
			return err
		}

		line, err := c.cfg.Terminal.ReadLine(c.cfg.Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.farewell()
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		if exit := c.Turn(ctx, line); exit {
			c.farewell()
			return nil
		}
	}
}

// Turn handles one non-blank line and reports whether the chat should end.
// Failures are shown and recorded; they never end the chat.
func (c *Chat) Turn(ctx context.Context, line string) bool {
	start := time.Now()
	reply, err := c.cfg.Responder.Respond(ctx, line)
	c.record(Turn{Input: line, Reply: reply, Err: err, Duration: time.Since(start)})

	switch {
	case err != nil:
		logging.Get(logging.CategorySession).Warn("turn failed: %v", err)
		c.cfg.Terminal.Error(fmt.Errorf("oops, something went wrong: %w", err))
	case reply.Exit:
		return true
	case reply.Info != types.InfoNone:
		c.cfg.Terminal.Info(reply.Info)
	default:
		c.cfg.Terminal.Reply(reply.Text)
	}
	return false
}

func (c *Chat) farewell() {
	if c.cfg.Farewell != "" {
		c.cfg.Terminal.Notice("%s", c.cfg.Farewell)
	}
}

func (c *Chat) record(t Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, t)
	if over := len(c.history) - c.cfg.MaxHistory; over > 0 {
		c.history = c.history[over:]
	}
}

// History returns a copy of the recorded turns, oldest first.
func (c *Chat) History() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Turn, len(c.history))
	copy(out, c.history)
	return out
}

// ErrNoInput is returned by Ask for blank input.
var ErrNoInput = errors.New("no input provided")

// Ask produces a single reply for input.
func Ask(ctx context.Context, r types.Responder, input string) (types.Reply, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Reply{}, ErrNoInput
	}
	timer := logging.StartTimer(logging.CategorySession, "ask")
	defer timer.Stop()
	return r.Respond(ctx, input)
}
