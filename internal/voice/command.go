package voice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"personabot/internal/logging"
	"personabot/internal/tactile"
)

// expand substitutes {placeholders} in every argument of template.
func expand(template []string, vars map[string]string) []string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	out := make([]string, len(template))
	for i, arg := range template {
		out[i] = r.Replace(arg)
	}
	return out
}

// commandEngine runs one templated external program.
type commandEngine struct {
	exec     tactile.Executor
	template []string
}

func (c commandEngine) available() error {
	if len(c.template) == 0 {
		return errors.New("no command configured")
	}
	if _, err := c.exec.LookPath(c.template[0]); err != nil {
		return fmt.Errorf("%s not found on PATH", c.template[0])
	}
	return nil
}

func (c commandEngine) run(ctx context.Context, vars map[string]string) (*tactile.ExecutionResult, error) {
	if len(c.template) == 0 {
		return nil, errors.New("no command configured")
	}
	argv := expand(c.template, vars)
	res, err := c.exec.Execute(ctx, tactile.Command{Binary: argv[0], Arguments: argv[1:]})
	if err != nil {
		return res, err
	}
	if !res.Succeeded() {
		if res.Killed {
			return res, fmt.Errorf("%s killed: %s", argv[0], res.KillReason)
		}
		return res, fmt.Errorf("%s exited %d: %s", argv[0], res.ExitCode, res.Output())
	}
	return res, nil
}

// CommandRecorder records with an external program such as arecord or rec.
type CommandRecorder struct {
	engine     commandEngine
	sampleRate int
}

// NewCommandRecorder creates a recorder from an argv template.
func NewCommandRecorder(exec tactile.Executor, template []string, sampleRate int) *CommandRecorder {
	return &CommandRecorder{engine: commandEngine{exec: exec, template: template}, sampleRate: sampleRate}
}

// Available reports whether the recording program exists.
func (r *CommandRecorder) Available() error { return r.engine.available() }

// Record captures seconds of audio into dest.
func (r *CommandRecorder) Record(ctx context.Context, seconds float64, dest string) error {
	logging.VoiceDebug("recording %.1fs -> %s", seconds, dest)
	_, err := r.engine.run(ctx, map[string]string{
		"output":      dest,
		"seconds":     strconv.FormatFloat(seconds, 'f', -1, 64),
		"seconds_int": strconv.Itoa(int(math.Ceil(seconds))),
		"sample_rate": strconv.Itoa(r.sampleRate),
	})
	if err != nil {
		return err
	}
	if fileSize(dest) <= 0 {
		return errors.New("recorder produced no audio")
	}
	return nil
}

// WhisperTranscriber runs the whisper CLI, which writes <stem>.txt into an
// output directory.
type WhisperTranscriber struct {
	engine commandEngine
	model  string
}

// NewWhisperTranscriber creates a transcriber from an argv template.
func NewWhisperTranscriber(exec tactile.Executor, template []string, model string) *WhisperTranscriber {
	return &WhisperTranscriber{engine: commandEngine{exec: exec, template: template}, model: model}
}

// Available reports whether the whisper program exists.
func (w *WhisperTranscriber) Available() error { return w.engine.available() }

// Transcribe returns the trimmed transcript of clip.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, clip string) (string, error) {
	outDir, err := os.MkdirTemp(filepath.Dir(clip), "transcript-")
	if err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	res, err := w.engine.run(ctx, map[string]string{
		"input":      clip,
		"model":      w.model,
		"output_dir": outDir,
	})
	if err != nil {
		return "", err
	}

	stem := strings.TrimSuffix(filepath.Base(clip), filepath.Ext(clip))
	data, err := os.ReadFile(filepath.Join(outDir, stem+".txt"))
	if err != nil {
		// Some builds only print the transcript.
		if res != nil && strings.TrimSpace(res.Stdout) != "" {
			return cleanTranscript(res.Stdout), nil
		}
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return cleanTranscript(string(data)), nil
}

// cleanTranscript joins lines and drops whisper's "[00:00.000 --> ...]"
// timestamps.
func cleanTranscript(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			if idx := strings.Index(line, "]"); idx >= 0 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// CommandSynthesizer runs a local TTS program such as Kokoro.
type CommandSynthesizer struct {
	engine commandEngine
	voice  string
	speed  float64
}

// NewCommandSynthesizer creates a synthesizer from an argv template. voice
// and rate are mapped with KokoroVoice and Speed.
func NewCommandSynthesizer(exec tactile.Executor, template []string, voice string, rate int) *CommandSynthesizer {
	return &CommandSynthesizer{
		engine: commandEngine{exec: exec, template: template},
		voice:  KokoroVoice(voice),
		speed:  Speed(rate),
	}
}

// Voice returns the mapped voice id.
func (s *CommandSynthesizer) Voice() string { return s.voice }

// Available reports whether the synthesis program exists.
func (s *CommandSynthesizer) Available() error { return s.engine.available() }

// Synthesize renders text into dest.
func (s *CommandSynthesizer) Synthesize(ctx context.Context, text, dest string) error {
	_, err := s.engine.run(ctx, map[string]string{
		"text":   text,
		"output": dest,
		"voice":  s.voice,
		"speed":  strconv.FormatFloat(s.speed, 'f', 2, 64),
	})
	if err != nil {
		return err
	}
	if fileSize(dest) <= 0 {
		return errors.New("synthesizer did not produce audio output")
	}
	return nil
}

// CommandPlayer plays audio with a program such as aplay or afplay.
type CommandPlayer struct {
	engine commandEngine
}

// NewCommandPlayer creates a player from an argv template.
func NewCommandPlayer(exec tactile.Executor, template []string) *CommandPlayer {
	return &CommandPlayer{engine: commandEngine{exec: exec, template: template}}
}

// Available reports whether the playback program exists.
func (p *CommandPlayer) Available() error { return p.engine.available() }

// Play plays path to completion.
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	_, err := p.engine.run(ctx, map[string]string{"input": path})
	return err
}
