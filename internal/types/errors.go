package types

import (
	"errors"
	"fmt"
	"strings"
)

// Session errors. Start-up errors are fatal, per-turn errors are reported and the loop continues.
var (
	// ErrProviderUnavailable is returned when no LLM backend passed its liveness probe.
	ErrProviderUnavailable = errors.New("no language model provider available")

	// ErrMissingCredential is returned when required configuration is absent.
	ErrMissingCredential = errors.New("missing credential")

	// ErrCapabilityArgumentMissing is returned when a capability needs an argument that was not given.
	ErrCapabilityArgumentMissing = errors.New("capability argument missing")

	// ErrCapabilityExecutionFailed wraps failures raised by the agent or LLM layer.
	ErrCapabilityExecutionFailed = errors.New("capability execution failed")

	// ErrUnknownCapability is returned for ids not present in the registry.
	ErrUnknownCapability = errors.New("unknown capability")

	// ErrToolRequired is returned when a capability needs a search tool and none is bound.
	ErrToolRequired = errors.New("capability requires an external tool")

	// ErrRecordingUnavailable is returned when audio capture is missing or fails.
	ErrRecordingUnavailable = errors.New("recording unavailable")

	// ErrTranscriptionFailed is returned when speech-to-text is missing or fails.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrSynthesisFailed is returned when text-to-speech is missing or fails.
	ErrSynthesisFailed = errors.New("synthesis failed")

	// ErrPlaybackFailed is returned when an audio artifact could not be played.
	ErrPlaybackFailed = errors.New("playback failed")
)

// CandidateError records why one provider candidate was rejected.
type CandidateError struct {
	Candidate string
	Err       error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Candidate, e.Err)
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// ProviderUnavailableError aggregates the failure of every candidate.
type ProviderUnavailableError struct {
	Failures []*CandidateError
}

func (e *ProviderUnavailableError) Error() string {
	if len(e.Failures) == 0 {
		return ErrProviderUnavailable.Error() + ": no candidates configured"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return ErrProviderUnavailable.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ProviderUnavailableError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// MissingCredentialError names the configuration keys that were absent.
type MissingCredentialError struct {
	Keys []string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingCredential.Error(), strings.Join(e.Keys, ", "))
}

func (e *MissingCredentialError) Is(target error) bool {
	return target == ErrMissingCredential
}
