package voice

import (
	"context"
	"fmt"

	"personabot/internal/types"
)

// SampleSentence is spoken by the synthesis check.
const SampleSentence = "Oi! It's Gabriel. This is a voice synthesis test. " +
	"The voice should sound natural and expressive."

// MicCheckSeconds is how long the microphone check records.
const MicCheckSeconds = 4.0

// MicCheck records a short clip, transcribes it and returns the transcript.
// The clip is always removed.
func MicCheck(ctx context.Context, eng Engines, scratch *Scratch, seconds float64) (string, error) {
	if eng.Recorder == nil {
		return "", fmt.Errorf("%w: no recorder configured", types.ErrRecordingUnavailable)
	}
	if err := eng.Recorder.Available(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrRecordingUnavailable, err)
	}
	if eng.Transcriber == nil {
		return "", fmt.Errorf("%w: no transcriber configured", types.ErrTranscriptionFailed)
	}
	if err := eng.Transcriber.Available(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTranscriptionFailed, err)
	}
	if seconds <= 0 {
		seconds = MicCheckSeconds
	}

	clip := scratch.NewClip("miccheck", ".wav")
	defer scratch.Remove(clip)

	if err := eng.Recorder.Record(ctx, seconds, clip); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrRecordingUnavailable, err)
	}
	text, err := eng.Transcriber.Transcribe(ctx, clip)
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrTranscriptionFailed, err)
	}
	return text, nil
}

// TTSCheckResult reports the synthesis check.
type TTSCheckResult struct {
	Path    string
	Bytes   int64
	PlayErr error
}

// TTSCheck synthesizes SampleSentence and plays it. The file is kept for
// the operator; playback failure is reported but does not fail the check.
func TTSCheck(ctx context.Context, eng Engines, scratch *Scratch) (*TTSCheckResult, error) {
	if eng.Synthesizer == nil {
		return nil, fmt.Errorf("%w: no synthesizer configured", types.ErrSynthesisFailed)
	}
	if err := eng.Synthesizer.Available(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrSynthesisFailed, err)
	}

	out := scratch.NewClip("ttscheck", ".wav")
	if err := eng.Synthesizer.Synthesize(ctx, SampleSentence, out); err != nil {
		scratch.Remove(out)
		return nil, fmt.Errorf("%w: %w", types.ErrSynthesisFailed, err)
	}

	res := &TTSCheckResult{Path: out, Bytes: fileSize(out)}
	switch {
	case eng.Player == nil:
		res.PlayErr = fmt.Errorf("%w: no player configured", types.ErrPlaybackFailed)
	case eng.Player.Available() != nil:
		res.PlayErr = fmt.Errorf("%w: %w", types.ErrPlaybackFailed, eng.Player.Available())
	default:
		if err := eng.Player.Play(ctx, out); err != nil {
			res.PlayErr = fmt.Errorf("%w: %w", types.ErrPlaybackFailed, err)
		}
	}
	return res, nil
}
