package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"personabot/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRecorder struct {
	unavailable error
	err         error
	clips       []string
}

func (f *fakeRecorder) Available() error { return f.unavailable }

func (f *fakeRecorder) Record(_ context.Context, _ float64, dest string) error {
	f.clips = append(f.clips, dest)
	// Write first so failures still leave a file behind to clean up.
	if err := os.WriteFile(dest, []byte("RIFFfake"), 0644); err != nil {
		return err
	}
	return f.err
}

type fakeTranscriber struct {
	text string
	err  error
	seen []string
	// hook runs after a successful transcription.
	hook func()
}

func (f *fakeTranscriber) Available() error { return nil }

func (f *fakeTranscriber) Transcribe(_ context.Context, clip string) (string, error) {
	f.seen = append(f.seen, clip)
	if _, err := os.Stat(clip); err != nil {
		return "", fmt.Errorf("clip missing before transcription: %w", err)
	}
	if f.hook != nil {
		f.hook()
	}
	return f.text, f.err
}

type fakeSynth struct {
	err   error
	texts []string
}

func (f *fakeSynth) Available() error { return nil }

func (f *fakeSynth) Synthesize(_ context.Context, text, dest string) error {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("RIFFreply"), 0644)
}

type fakePlayer struct {
	err    error
	played []string
}

func (f *fakePlayer) Available() error { return nil }

func (f *fakePlayer) Play(_ context.Context, path string) error {
	f.played = append(f.played, path)
	return f.err
}

type fakeResponder struct {
	reply  types.Reply
	err    error
	inputs []string
}

func (f *fakeResponder) Respond(_ context.Context, input string) (types.Reply, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return types.Reply{}, f.err
	}
	if f.reply.Text == "" && !f.reply.Exit && f.reply.Info == types.InfoNone {
		return types.Reply{Text: "echo: " + input}, nil
	}
	return f.reply, nil
}

type scriptedPrompter struct {
	lines   []string
	prompts []string
	// done is returned once lines run out; nil means io.EOF.
	done error
}

func (s *scriptedPrompter) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		if s.done != nil {
			return "", s.done
		}
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

type recordingPrinter struct {
	notices []string
	replies []string
	infos   []types.InfoKind
	errs    []error
	// order records "reply" and "error" events in sequence.
	order []string
}

func (r *recordingPrinter) Notice(format string, args ...any) {
	r.notices = append(r.notices, fmt.Sprintf(format, args...))
}
func (r *recordingPrinter) Reply(text string) {
	r.replies = append(r.replies, text)
	r.order = append(r.order, "reply")
}
func (r *recordingPrinter) Info(kind types.InfoKind) { r.infos = append(r.infos, kind) }
func (r *recordingPrinter) Error(err error) {
	r.errs = append(r.errs, err)
	r.order = append(r.order, "error")
}

type harness struct {
	rec      *fakeRecorder
	stt      *fakeTranscriber
	tts      *fakeSynth
	player   *fakePlayer
	resp     *fakeResponder
	prompter *scriptedPrompter
	printer  *recordingPrinter
	scratch  *Scratch
	states   []State
	session  *Session
}

func newHarness(t *testing.T, lines ...string) *harness {
	t.Helper()
	h := &harness{
		rec:      &fakeRecorder{},
		stt:      &fakeTranscriber{text: "tell me about pink floyd"},
		tts:      &fakeSynth{},
		player:   &fakePlayer{},
		resp:     &fakeResponder{},
		prompter: &scriptedPrompter{lines: lines},
		printer:  &recordingPrinter{},
		scratch:  NewScratch(t.TempDir()),
	}
	s, err := NewSession(SessionConfig{
		Responder:     h.resp,
		Engines:       Engines{Recorder: h.rec, Transcriber: h.stt, Synthesizer: h.tts, Player: h.player},
		Scratch:       h.scratch,
		RecordSeconds: 1,
		Prompter:      h.prompter,
		Printer:       h.printer,
		OnState:       func(st State) { h.states = append(h.states, st) },
	})
	require.NoError(t, err)
	h.session = s
	return h
}

// inputClips lists input clips left in the scratch directory.
func (h *harness) inputClips(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.scratch.Dir(), "input-*"))
	require.NoError(t, err)
	return matches
}

func TestTurn_SpokenHappyPath(t *testing.T) {
	h := newHarness(t, "") // keep transcript as-is

	res := h.session.Turn(context.Background(), "")
	require.NoError(t, res.Err)
	assert.Equal(t, "tell me about pink floyd", res.Transcript)
	assert.Equal(t, "tell me about pink floyd", res.Input)
	assert.Equal(t, []string{"tell me about pink floyd"}, h.resp.inputs)
	assert.Equal(t, []string{"echo: tell me about pink floyd"}, h.printer.replies)

	assert.Empty(t, h.inputClips(t), "input clip must be deleted")
	require.NotEmpty(t, res.ReplyAudio)
	assert.FileExists(t, res.ReplyAudio, "reply audio is retained")
	assert.Equal(t, []string{res.ReplyAudio}, h.player.played)

	assert.Equal(t, []State{StateCapturing, StateTranscribing, StateDispatching, StateSynthesizing, StatePlaying, StateIdle}, h.states)
	assert.Equal(t, StateIdle, h.session.State())
	assert.Contains(t, h.prompter.prompts, "Edit transcript (press Enter to keep it as-is): ")
}

func TestTurn_TranscriptCorrection(t *testing.T) {
	h := newHarness(t, "research pink floyd")

	res := h.session.Turn(context.Background(), "")
	require.NoError(t, res.Err)
	assert.Equal(t, "tell me about pink floyd", res.Transcript)
	assert.Equal(t, []string{"research pink floyd"}, h.resp.inputs)
}

func TestTurn_ClipRemovedWhenTranscriptionFails(t *testing.T) {
	h := newHarness(t)
	h.stt.err = errors.New("whisper crashed")

	res := h.session.Turn(context.Background(), "")
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, types.ErrTranscriptionFailed)
	assert.Len(t, h.stt.seen, 1)
	assert.Empty(t, h.inputClips(t))
	assert.Empty(t, h.resp.inputs, "nothing is dispatched")
	assert.Equal(t, StateIdle, h.session.State())
}

func TestTurn_ClipRemovedWhenRecordingFails(t *testing.T) {
	h := newHarness(t)
	h.rec.err = errors.New("device busy")

	res := h.session.Turn(context.Background(), "")
	assert.ErrorIs(t, res.Err, types.ErrRecordingUnavailable)
	require.Len(t, h.rec.clips, 1)
	assert.NoFileExists(t, h.rec.clips[0])
	assert.Empty(t, h.stt.seen)
}

func TestTurn_RecorderUnavailable(t *testing.T) {
	h := newHarness(t)
	h.rec.unavailable = errors.New("arecord not found on PATH")

	res := h.session.Turn(context.Background(), "")
	assert.ErrorIs(t, res.Err, types.ErrRecordingUnavailable)
	assert.Empty(t, h.rec.clips, "capture is never entered")
	assert.NotContains(t, h.states, StateCapturing)
}

func TestTurn_EmptyTranscript(t *testing.T) {
	h := newHarness(t)
	h.stt.text = "   "

	res := h.session.Turn(context.Background(), "")
	assert.NoError(t, res.Err)
	assert.Empty(t, h.resp.inputs)
	assert.Contains(t, h.printer.notices, "I could not understand anything. Try again.")
	assert.Empty(t, h.inputClips(t))
}

func TestTurn_SynthesisFailureKeepsTextReply(t *testing.T) {
	h := newHarness(t)
	h.tts.err = errors.New("kokoro missing voice pack")

	res := h.session.Turn(context.Background(), "hello there")
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, types.ErrSynthesisFailed)
	assert.Equal(t, "echo: hello there", res.Reply.Text)
	assert.Equal(t, []string{"reply", "error"}, h.printer.order, "text is shown before the synthesis error")
	assert.Empty(t, h.player.played)
	assert.Empty(t, res.ReplyAudio)
	assert.Equal(t, StateIdle, h.session.State())
}

func TestTurn_PlaybackFailureRetainsArtifact(t *testing.T) {
	h := newHarness(t)
	h.player.err = errors.New("no output device")

	res := h.session.Turn(context.Background(), "hello")
	assert.ErrorIs(t, res.Err, types.ErrPlaybackFailed)
	assert.FileExists(t, res.ReplyAudio)
	assert.Equal(t, "echo: hello", res.Reply.Text)
}

func TestTurn_DispatchFailureSkipsAudio(t *testing.T) {
	h := newHarness(t)
	h.resp.err = fmt.Errorf("%w: rate limited", types.ErrCapabilityExecutionFailed)

	res := h.session.Turn(context.Background(), "hello")
	assert.ErrorIs(t, res.Err, types.ErrCapabilityExecutionFailed)
	assert.Empty(t, h.tts.texts)
	assert.Empty(t, h.printer.replies)
	assert.NotContains(t, h.states, StateSynthesizing)
}

func TestTurn_TextOverride(t *testing.T) {
	h := newHarness(t, "what are you listening to?")

	res := h.session.Turn(context.Background(), "TEXT")
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"what are you listening to?"}, h.resp.inputs)
	assert.Empty(t, h.rec.clips)
	assert.Equal(t, StateTextOverride, h.states[0])
}

func TestTurn_TextOverrideEmpty(t *testing.T) {
	h := newHarness(t, "   ")

	res := h.session.Turn(context.Background(), "text")
	assert.NoError(t, res.Err)
	assert.Empty(t, h.resp.inputs)
	assert.Contains(t, h.printer.notices, "No text provided.")
}

func TestTurn_Exit(t *testing.T) {
	for _, line := range []string{"q", "quit", " EXIT ", "bye"} {
		h := newHarness(t)
		res := h.session.Turn(context.Background(), line)
		assert.True(t, res.Exit, line)
		assert.Equal(t, StateExit, h.session.State())
		assert.Empty(t, h.resp.inputs)
	}
}

func TestTurn_InfoReplyIsNotSpoken(t *testing.T) {
	h := newHarness(t)
	h.resp.reply = types.Reply{Info: types.InfoHelp}

	res := h.session.Turn(context.Background(), "help")
	assert.NoError(t, res.Err)
	assert.Equal(t, []types.InfoKind{types.InfoHelp}, h.printer.infos)
	assert.Empty(t, h.tts.texts)
}

func TestTurn_SpeaksWithoutMarkdown(t *testing.T) {
	h := newHarness(t)
	h.resp.reply = types.Reply{Text: "## Picks\n| Album | Year |\n|---|---|\n| Animals | 1977 |"}

	res := h.session.Turn(context.Background(), "music")
	require.NoError(t, res.Err)
	require.Len(t, h.tts.texts, 1)
	assert.False(t, strings.ContainsAny(h.tts.texts[0], "#|"))
}

func TestRun_LoopsUntilQuit(t *testing.T) {
	h := newHarness(t, "hello", "", "", "quit")
	// Turn 1 typed, turn 2 spoken (then the edit prompt consumes ""),
	// then quit.

	err := h.session.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "tell me about pink floyd"}, h.resp.inputs)
	assert.Empty(t, h.inputClips(t))
	assert.Equal(t, StateExit, h.session.State())
}

func TestRun_EOFExits(t *testing.T) {
	h := newHarness(t)
	assert.NoError(t, h.session.Run(context.Background()))
}

func TestRun_CanceledBetweenTurns(t *testing.T) {
	h := newHarness(t, "hello", "again")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.session.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, h.resp.inputs)
}

func TestNewSession_Validation(t *testing.T) {
	_, err := NewSession(SessionConfig{})
	assert.Error(t, err)
	_, err = NewSession(SessionConfig{Responder: &fakeResponder{}})
	assert.Error(t, err)
}

func TestTurn_InterruptDuringTranscriptEditSkipsDispatch(t *testing.T) {
	h := newHarness(t)
	h.prompter.done = context.Canceled

	res := h.session.Turn(context.Background(), "")
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, "tell me about pink floyd", res.Transcript)
	assert.Empty(t, h.resp.inputs, "an interrupted turn must not dispatch")
	assert.Empty(t, h.tts.texts)
	assert.Empty(t, h.player.played)
	assert.Empty(t, h.inputClips(t))
	assert.Equal(t, StateIdle, h.session.State())
	assert.NotContains(t, h.states, StateDispatching)
}

func TestTurn_CanceledContextDuringTranscriptEdit(t *testing.T) {
	h := newHarness(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.stt.hook = cancel

	res := h.session.Turn(ctx, "")
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Empty(t, h.resp.inputs)
	assert.False(t, res.Exit)
	assert.Equal(t, StateIdle, h.session.State())
}

func TestTurn_EndOfInputDuringTranscriptEditKeepsTranscript(t *testing.T) {
	h := newHarness(t)

	res := h.session.Turn(context.Background(), "")
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"tell me about pink floyd"}, h.resp.inputs)
}
