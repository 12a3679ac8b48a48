package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"personabot/internal/articulation"
	"personabot/internal/dispatch"
	"personabot/internal/logging"
	"personabot/internal/tracing"
	"personabot/internal/types"
)

// State is a voice session state.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateTranscribing
	StateTextOverride
	StateDispatching
	StateSynthesizing
	StatePlaying
	StateExit
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateCapturing:    "capturing",
	StateTranscribing: "transcribing",
	StateTextOverride: "text_override",
	StateDispatching:  "dispatching",
	StateSynthesizing: "synthesizing",
	StatePlaying:      "playing",
	StateExit:         "exit",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Prompter reads one line of operator input after showing prompt.
type Prompter interface {
	ReadLine(prompt string) (string, error)
}

// Printer shows session output to the operator.
type Printer interface {
	Notice(format string, args ...any)
	Reply(text string)
	Info(kind types.InfoKind)
	Error(err error)
}

// SessionConfig wires a Session.
type SessionConfig struct {
	Responder     types.Responder
	Engines       Engines
	Scratch       *Scratch
	RecordSeconds float64
	Prompter      Prompter
	Printer       Printer

	// OnState observes transitions. Optional.
	OnState func(State)
}

// Session is the record → transcribe → respond → synthesize → play loop.
// One turn runs to completion before the next line is read; cancellation is
// honored only while idle.
type Session struct {
	cfg   SessionConfig
	state State
}

// TurnResult describes one completed turn.
type TurnResult struct {
	// Input is the text that was dispatched, after any transcript edit.
	Input string
	// Transcript is the machine transcript, empty for typed input.
	Transcript string
	Reply      types.Reply
	// ReplyAudio is the retained synthesized reply, if any.
	ReplyAudio string
	// Err is the first failure of the turn. Synthesis and playback
	// failures are reported here without discarding Reply.
	Err  error
	Exit bool
}

// NewSession validates cfg and creates an idle session.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.Responder == nil {
		return nil, errors.New("voice session requires a responder")
	}
	if cfg.Prompter == nil || cfg.Printer == nil {
		return nil, errors.New("voice session requires a prompter and a printer")
	}
	if cfg.Scratch == nil {
		cfg.Scratch = NewScratch("")
	}
	if cfg.RecordSeconds <= 0 {
		cfg.RecordSeconds = 6.0
	}
	return &Session{cfg: cfg}, nil
}

// State returns the current state.
func (s *Session) State() State { return s.state }

func (s *Session) enter(st State) {
	s.state = st
	logging.VoiceDebug("state -> %s", st)
	if s.cfg.OnState != nil {
		s.cfg.OnState(st)
	}
}

// Run loops until an exit command, end of input, or ctx is canceled
// between turns.
func (s *Session) Run(ctx context.Context) error {
	p := s.cfg.Printer
	p.Notice("🎙️ Voice chat ready. Press Enter to record or type commands.")
	p.Notice("- Enter: record a message")
	p.Notice("- text: type instead of speaking")
	p.Notice("- quit: exit voice chat")

	for {
		s.enter(StateIdle)
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := s.cfg.Prompter.ReadLine("Command (Enter/text/quit): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.enter(StateExit)
				return nil
			}
			return err
		}

		res := s.Turn(ctx, line)
		if res.Exit {
			return nil
		}
	}
}

// Turn runs one turn for the line read at Idle. It never panics on engine
// failure and never returns an error: failures are reported to the
// operator and recorded in the result.
func (s *Session) Turn(ctx context.Context, line string) *TurnResult {
	ctx, span := tracing.Start(ctx, "voice.turn")
	defer span.End()

	res := &TurnResult{}
	defer func() {
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, "turn degraded")
		}
		if !res.Exit {
			s.enter(StateIdle)
		}
	}()

	action := strings.TrimSpace(line)
	lower := strings.ToLower(action)

	switch {
	case lower == "q" || dispatch.Classify(action).Kind == dispatch.KindExit:
		s.exit(res)
		return res

	case lower == "text":
		s.enter(StateTextOverride)
		typed, err := s.cfg.Prompter.ReadLine("Type your message: ")
		if err != nil || strings.TrimSpace(typed) == "" {
			s.cfg.Printer.Notice("No text provided.")
			return res
		}
		res.Input = strings.TrimSpace(typed)

	case action != "":
		s.enter(StateTextOverride)
		s.cfg.Printer.Notice("You typed: %s", action)
		res.Input = action

	default:
		text, err := s.listen(ctx)
		res.Transcript = text
		if err != nil {
			res.Err = err
			s.cfg.Printer.Error(err)
			return res
		}
		if text == "" {
			s.cfg.Printer.Notice("I could not understand anything. Try again.")
			return res
		}
		s.cfg.Printer.Notice("You said: %s", text)
		res.Input = text
		edited, err := s.cfg.Prompter.ReadLine("Edit transcript (press Enter to keep it as-is): ")
		switch {
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			// Interrupted mid-turn: drop the turn and let Run stop at Idle.
			if err == nil {
				err = ctx.Err()
			}
			res.Err = err
			return res
		case err == nil:
			if edited = strings.TrimSpace(edited); edited != "" {
				res.Input = edited
			}
		}
	}

	span.SetAttributes(attribute.Bool("voice.spoken", res.Transcript != ""))
	s.respond(ctx, res)
	return res
}

func (s *Session) exit(res *TurnResult) {
	res.Exit = true
	s.cfg.Printer.Notice("Voice session closed.")
	s.enter(StateExit)
}

// listen records and transcribes one utterance. The input clip is removed
// on every path, including recorder and transcriber failures.
func (s *Session) listen(ctx context.Context) (string, error) {
	eng := s.cfg.Engines
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

	clip := s.cfg.Scratch.NewClip("input", ".wav")
	defer s.cfg.Scratch.Remove(clip)

	s.enter(StateCapturing)
	s.cfg.Printer.Notice("🎤 Recording for %.1f seconds...", s.cfg.RecordSeconds)
	if err := eng.Recorder.Record(ctx, s.cfg.RecordSeconds, clip); err != nil {
		logging.VoiceError("recording failed: %v", err)
		return "", fmt.Errorf("%w: %w", types.ErrRecordingUnavailable, err)
	}
	logging.Voice("captured audio -> %s (%d bytes)", clip, fileSize(clip))

	s.enter(StateTranscribing)
	text, err := eng.Transcriber.Transcribe(ctx, clip)
	if err != nil {
		logging.VoiceError("transcription failed: %v", err)
		return "", fmt.Errorf("%w: %w", types.ErrTranscriptionFailed, err)
	}
	return strings.TrimSpace(text), nil
}

// respond dispatches res.Input, shows the reply and speaks it.
func (s *Session) respond(ctx context.Context, res *TurnResult) {
	s.enter(StateDispatching)
	reply, err := s.cfg.Responder.Respond(ctx, res.Input)
	if err != nil {
		res.Err = err
		s.cfg.Printer.Error(fmt.Errorf("response failed: %w", err))
		return
	}
	res.Reply = reply

	switch {
	case reply.Exit:
		s.exit(res)
		return
	case reply.Info != types.InfoNone:
		s.cfg.Printer.Info(reply.Info)
		return
	}

	s.cfg.Printer.Reply(reply.Text)
	if strings.TrimSpace(reply.Text) == "" {
		return
	}

	if err := s.speak(ctx, res); err != nil {
		res.Err = err
		s.cfg.Printer.Error(err)
	}
}

// speak synthesizes and plays the reply. The reply audio is kept on disk.
func (s *Session) speak(ctx context.Context, res *TurnResult) error {
	eng := s.cfg.Engines
	if eng.Synthesizer == nil {
		return fmt.Errorf("%w: no synthesizer configured", types.ErrSynthesisFailed)
	}
	if err := eng.Synthesizer.Available(); err != nil {
		return fmt.Errorf("%w: %w", types.ErrSynthesisFailed, err)
	}

	s.enter(StateSynthesizing)
	out := s.cfg.Scratch.NewClip("reply", ".wav")
	if err := eng.Synthesizer.Synthesize(ctx, articulation.Speakable(res.Reply.Text), out); err != nil {
		s.cfg.Scratch.Remove(out)
		logging.VoiceError("synthesis failed: %v", err)
		return fmt.Errorf("%w: %w", types.ErrSynthesisFailed, err)
	}
	res.ReplyAudio = out

	s.enter(StatePlaying)
	var playErr error
	if eng.Player == nil {
		playErr = fmt.Errorf("%w: no player configured", types.ErrPlaybackFailed)
	} else if err := eng.Player.Available(); err != nil {
		playErr = fmt.Errorf("%w: %w", types.ErrPlaybackFailed, err)
	} else if err := eng.Player.Play(ctx, out); err != nil {
		logging.VoiceWarn("playback failed: %v", err)
		playErr = fmt.Errorf("%w: %w", types.ErrPlaybackFailed, err)
	}

	s.cfg.Printer.Notice("🔊 Saved reply audio at %s (%d bytes)", out, fileSize(out))
	return playErr
}
