// Package types provides shared type definitions used across personabot packages.
// This package exists to break import cycles between perception, capability, crew and voice.
package types

import (
	"context"
)

// LLMClient defines the interface for LLM interactions.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Responder turns one line of operator input into a reply.
// Shells, the voice session and the bridge all drive a Responder.
type Responder interface {
	Respond(ctx context.Context, input string) (Reply, error)
}

// InfoKind names the informational screens handled by the shell itself.
type InfoKind string

const (
	InfoNone  InfoKind = ""
	InfoHelp  InfoKind = "help"
	InfoAbout InfoKind = "about"
)

// Reply is the outcome of one turn.
type Reply struct {
	// Text is the sanitized response to show (or speak) to the operator.
	Text string
	// Exit is set when the input was an exit command.
	Exit bool
	// Info is set for help/about requests.
	Info InfoKind
	// Capability is the id of the capability that produced Text.
	Capability string
}
