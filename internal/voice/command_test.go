package voice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personabot/internal/tactile"
)

// fakeExecutor records commands and runs an optional side effect instead
// of spawning processes.
type fakeExecutor struct {
	missing map[string]bool
	result  tactile.ExecutionResult
	err     error
	effect  func(cmd tactile.Command)
	calls   []tactile.Command
}

func (f *fakeExecutor) Execute(_ context.Context, cmd tactile.Command) (*tactile.ExecutionResult, error) {
	f.calls = append(f.calls, cmd)
	if f.err != nil {
		return nil, f.err
	}
	if f.effect != nil {
		f.effect(cmd)
	}
	res := f.result
	return &res, nil
}

func (f *fakeExecutor) LookPath(binary string) (string, error) {
	if f.missing[binary] {
		return "", errors.New("not found")
	}
	return "/usr/bin/" + binary, nil
}

// argAfter returns the argument following flag.
func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestExpand(t *testing.T) {
	out := expand(
		[]string{"whisper", "{input}", "--model", "{model}", "--out={output_dir}", "{unknown}"},
		map[string]string{"input": "/tmp/a.wav", "model": "small", "output_dir": "/tmp/o"},
	)
	assert.Equal(t, []string{"whisper", "/tmp/a.wav", "--model", "small", "--out=/tmp/o", "{unknown}"}, out)
}

func TestCleanTranscript(t *testing.T) {
	in := "[00:00.000 --> 00:02.000]  hello there\n\n[00:02.000 --> 00:04.000] how are you\n"
	assert.Equal(t, "hello there how are you", cleanTranscript(in))
	assert.Equal(t, "plain text", cleanTranscript("  plain text \n"))
	assert.Equal(t, "", cleanTranscript("\n \n"))
}

func TestCommandEngine_Available(t *testing.T) {
	exec := &fakeExecutor{missing: map[string]bool{"arecord": true}}

	assert.Error(t, NewCommandRecorder(exec, nil, 16000).Available())
	err := NewCommandRecorder(exec, []string{"arecord", "{output}"}, 16000).Available()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arecord not found")
	assert.NoError(t, NewCommandPlayer(exec, []string{"aplay", "{input}"}).Available())
}

func TestCommandRecorder_Record(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "input.wav")
	exec := &fakeExecutor{effect: func(cmd tactile.Command) {
		_ = os.WriteFile(cmd.Arguments[len(cmd.Arguments)-1], []byte("RIFF"), 0644)
	}}
	rec := NewCommandRecorder(exec, []string{"arecord", "-r", "{sample_rate}", "-d", "{seconds_int}", "{output}"}, 16000)

	require.NoError(t, rec.Record(context.Background(), 2.5, dest))
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "arecord", exec.calls[0].Binary)
	assert.Equal(t, []string{"-r", "16000", "-d", "3", dest}, exec.calls[0].Arguments)
}

func TestCommandRecorder_EmptyOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "input.wav")
	rec := NewCommandRecorder(&fakeExecutor{}, []string{"arecord", "{output}"}, 16000)
	assert.Error(t, rec.Record(context.Background(), 1, dest))
}

func TestCommandRecorder_NonZeroExit(t *testing.T) {
	exec := &fakeExecutor{result: tactile.ExecutionResult{ExitCode: 1, Stderr: "device busy"}}
	rec := NewCommandRecorder(exec, []string{"arecord", "{output}"}, 16000)

	err := rec.Record(context.Background(), 1, filepath.Join(t.TempDir(), "x.wav"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device busy")
}

func TestWhisperTranscriber_ReadsOutputFile(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "input-abc.wav")
	require.NoError(t, os.WriteFile(clip, []byte("RIFF"), 0644))

	var outDir string
	exec := &fakeExecutor{effect: func(cmd tactile.Command) {
		outDir = argAfter(cmd.Arguments, "--output_dir")
		_ = os.WriteFile(filepath.Join(outDir, "input-abc.txt"), []byte(" research pink floyd \n"), 0644)
	}}
	stt := NewWhisperTranscriber(exec, []string{"whisper", "{input}", "--model", "{model}", "--output_dir", "{output_dir}"}, "small")

	text, err := stt.Transcribe(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, "research pink floyd", text)
	assert.Equal(t, "small", argAfter(exec.calls[0].Arguments, "--model"))
	assert.NoDirExists(t, outDir, "transcript dir is cleaned up")
}

func TestWhisperTranscriber_FallsBackToStdout(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "input.wav")
	exec := &fakeExecutor{result: tactile.ExecutionResult{Stdout: "[00:00.000 --> 00:01.000] hi\n"}}
	stt := NewWhisperTranscriber(exec, []string{"whisper", "{input}", "--output_dir", "{output_dir}"}, "base")

	text, err := stt.Transcribe(context.Background(), clip)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestWhisperTranscriber_NoOutput(t *testing.T) {
	clip := filepath.Join(t.TempDir(), "input.wav")
	stt := NewWhisperTranscriber(&fakeExecutor{}, []string{"whisper", "{input}", "--output_dir", "{output_dir}"}, "base")

	_, err := stt.Transcribe(context.Background(), clip)
	assert.Error(t, err)
}

func TestCommandSynthesizer(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "reply.wav")
	exec := &fakeExecutor{effect: func(cmd tactile.Command) {
		_ = os.WriteFile(argAfter(cmd.Arguments, "--output-file"), []byte("RIFFdata"), 0644)
	}}
	tts := NewCommandSynthesizer(exec,
		[]string{"python3", "-m", "kokoro", "--voice", "{voice}", "--speed", "{speed}", "--text", "{text}", "--output-file", "{output}"},
		"nova", 350)

	assert.Equal(t, "af_heart", tts.Voice())
	require.NoError(t, tts.Synthesize(context.Background(), "Hello {voice}", dest))

	args := exec.calls[0].Arguments
	assert.Equal(t, "af_heart", argAfter(args, "--voice"))
	assert.Equal(t, "2.00", argAfter(args, "--speed"))
	assert.Equal(t, dest, argAfter(args, "--output-file"))
	assert.Equal(t, "Hello {voice}", argAfter(args, "--text"), "placeholders in the text are not expanded")
	assert.FileExists(t, dest)
}

func TestCommandSynthesizer_NoAudio(t *testing.T) {
	tts := NewCommandSynthesizer(&fakeExecutor{}, []string{"kokoro", "{output}"}, "am_puck", 175)
	err := tts.Synthesize(context.Background(), "hi", filepath.Join(t.TempDir(), "r.wav"))
	assert.ErrorContains(t, err, "did not produce audio")
}

func TestCommandPlayer_StartFailure(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exec format error")}
	err := NewCommandPlayer(exec, []string{"aplay", "{input}"}).Play(context.Background(), "/tmp/x.wav")
	assert.ErrorContains(t, err, "exec format error")
}
