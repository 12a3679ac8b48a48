package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"personabot/internal/bridge"
	"personabot/internal/capability"
	"personabot/internal/perception"
	"personabot/internal/session"
	"personabot/internal/types"
	"personabot/internal/ui"
	"personabot/internal/voice"
)

// runMenu shows the start-up menu and runs the chosen mode. Anything but
// 2-6 starts the chat.
func runMenu(ctx context.Context, a *app) error {
	ttsReady := a.engines.Synthesizer != nil && a.engines.Synthesizer.Available() == nil
	a.console.Println(ui.Menu(a.styles, ui.FirstName(a.persona), ui.StartMenu(ttsReady)))

	choice, err := a.console.ReadLine("Enter choice (1-6): ")
	if err != nil {
		if interrupted(err) {
			return nil
		}
		return err
	}

	switch strings.TrimSpace(choice) {
	case "2":
		return runSelfTest(ctx, a)
	case "3":
		return runAsk(ctx, a, "")
	case "4":
		return runVoice(ctx, a)
	case "5":
		return runMicCheck(ctx, a)
	case "6":
		return runTTSCheck(ctx, a)
	default:
		return runChat(ctx, a)
	}
}

func farewell(a *app) string {
	return fmt.Sprintf("%s: Até logo! Thanks for chatting with me! 👋", ui.FirstName(a.persona))
}

func runChat(ctx context.Context, a *app) error {
	w, err := a.interactive(ctx)
	if err != nil {
		return err
	}

	a.console.Println(ui.Banner(a.styles, a.persona, w.orch.Registry().Date()))
	a.console.Success("✅ %s initialized! Ready to chat.", ui.FirstName(a.persona))

	chat, err := session.NewChat(session.ChatConfig{
		Responder: w.orch,
		Terminal:  a.console,
		Farewell:  farewell(a),
	})
	if err != nil {
		return err
	}
	if err := chat.Run(ctx); err != nil && !interrupted(err) {
		return err
	}
	logger.Info("chat finished", zap.Int("turns", len(chat.History())))
	return nil
}

func runAsk(ctx context.Context, a *app, input string) error {
	if input == "" {
		line, err := a.console.ReadLine(fmt.Sprintf("Enter your message for %s: ", ui.FirstName(a.persona)))
		if err != nil {
			if interrupted(err) {
				return nil
			}
			return err
		}
		input = line
	}
	if strings.TrimSpace(input) == "" {
		a.console.Notice("No input provided.")
		return nil
	}

	w, err := a.interactive(ctx)
	if err != nil {
		return err
	}
	reply, err := session.Ask(ctx, w.orch, input)
	if err != nil {
		return err
	}
	switch {
	case reply.Exit:
		a.console.Notice("%s", farewell(a))
	case reply.Info != types.InfoNone:
		a.console.Info(reply.Info)
	default:
		a.console.Reply(reply.Text)
	}
	return nil
}

func runSelfTest(ctx context.Context, a *app) error {
	deps := session.SelfTestDeps{
		Persona: a.persona,
		Engines: a.engines,
	}
	// Components that do not depend on the provider are still checked
	// when selection fails.
	w, err := a.interactive(ctx)
	if err != nil {
		a.console.Error(err)
	} else {
		deps.Handle = w.handle
		deps.Registry = w.orch.Registry()
		deps.Search = w.search
	}
	if deps.Registry == nil {
		deps.Registry = capability.Build(a.persona, time.Now())
	}

	report := session.SelfTest(ctx, a.console, deps)
	if !report.Passed() {
		return errors.New("self-test failed")
	}
	return nil
}

func runVoice(ctx context.Context, a *app) error {
	a.console.Println(a.styles.Title.Render("🎧 Voice Chat"))
	for name, err := range a.engines.Report() {
		if err != nil {
			a.console.Warn("⚠️ %s unavailable: %v", name, err)
		}
	}

	w, err := a.interactive(ctx)
	if err != nil {
		return err
	}
	s, err := voice.NewSession(voice.SessionConfig{
		Responder:     w.orch,
		Engines:       a.engines,
		Scratch:       a.scratch,
		RecordSeconds: a.cfg.Voice.RecordSeconds,
		Prompter:      a.console,
		Printer:       a.console,
	})
	if err != nil {
		return err
	}
	if err := s.Run(ctx); err != nil && !interrupted(err) {
		return err
	}
	return nil
}

func runMicCheck(ctx context.Context, a *app) error {
	a.console.Notice("🎤 Speak now: recording %.0f seconds...", voice.MicCheckSeconds)
	text, err := voice.MicCheck(ctx, a.engines, a.scratch, voice.MicCheckSeconds)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		a.console.Warn("No speech detected.")
		return nil
	}
	a.console.Success("📝 Transcript: %s", text)
	return nil
}

func runTTSCheck(ctx context.Context, a *app) error {
	a.console.Notice("🔊 Synthesizing: %s", voice.SampleSentence)
	res, err := voice.TTSCheck(ctx, a.engines, a.scratch)
	if err != nil {
		return err
	}
	if res.PlayErr != nil {
		a.console.Warn("⚠️ Playback failed: %v", res.PlayErr)
	}
	a.console.Success("✅ Saved audio at %s (%d bytes)", res.Path, res.Bytes)
	return nil
}

func runBridge(ctx context.Context, a *app) error {
	if err := a.cfg.ValidateBridge(); err != nil {
		a.console.Notice("Example: export ANTHROPIC_API_KEY=... && export DOMAIN_NAME=agent.example.com")
		return err
	}

	w, err := a.wire(ctx, perception.BridgeCandidates(a.cfg.LLM))
	if err != nil {
		return err
	}
	srv, err := bridge.NewServer(bridge.Config{
		Addr:           a.cfg.Bridge.ListenAddr,
		Domain:         a.cfg.Bridge.Domain,
		Responder:      w.orch,
		InfoText:       infoText(a),
		RequestTimeout: a.cfg.GetTurnTimeout(),
	})
	if err != nil {
		return err
	}

	a.console.Success("🔗 Bridge for %s listening on %s", a.cfg.Bridge.Domain, srv.Addr())
	logger.Info("bridge started", zap.String("addr", srv.Addr()), zap.String("domain", a.cfg.Bridge.Domain))
	return srv.Serve(ctx)
}

// infoText renders help and about without terminal styling.
func infoText(a *app) func(types.InfoKind) string {
	plain := ui.PlainStyles()
	return func(kind types.InfoKind) string {
		switch kind {
		case types.InfoHelp:
			return ui.Help(plain, a.persona)
		case types.InfoAbout:
			return ui.About(plain, a.persona)
		}
		return ""
	}
}
