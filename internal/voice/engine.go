// Package voice drives spoken conversation: record an utterance, transcribe
// it, get a persona reply, synthesize it and play it back. Every engine is
// an external program or API and advertises whether it can run via
// Available, so the session can refuse a state before entering it.
package voice

import (
	"context"
	"errors"
)

// Recorder captures microphone audio into a file.
type Recorder interface {
	Available() error
	Record(ctx context.Context, seconds float64, dest string) error
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Available() error
	Transcribe(ctx context.Context, clip string) (string, error)
}

// Synthesizer renders text into an audio file.
type Synthesizer interface {
	Available() error
	Synthesize(ctx context.Context, text, dest string) error
}

// Player plays an audio file on the output device.
type Player interface {
	Available() error
	Play(ctx context.Context, path string) error
}

// Engines bundles the four speech engines.
type Engines struct {
	Recorder    Recorder
	Transcriber Transcriber
	Synthesizer Synthesizer
	Player      Player
}

var errNotConfigured = errors.New("not configured")
