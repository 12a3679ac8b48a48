package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"personabot/internal/agent"
	"personabot/internal/capability"
	"personabot/internal/config"
	"personabot/internal/perception"
	"personabot/internal/persona"
	"personabot/internal/tactile"
	"personabot/internal/tools"
	"personabot/internal/tools/research"
	"personabot/internal/ui"
	"personabot/internal/voice"
)

// app holds what every mode shares: configuration, persona, terminal and
// speech engines. The provider is selected per mode, since the bridge uses
// its own candidate list.
type app struct {
	cfg     *config.Config
	persona persona.Persona
	styles  ui.Styles
	console *ui.Console
	engines voice.Engines
	scratch *voice.Scratch
}

// wired is a ready responder with the pieces it was built from.
type wired struct {
	orch   *agent.Orchestrator
	handle *perception.Handle
	search *tools.Tool
}

func withApp(cmd *cobra.Command, run func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	return run(ctx, a)
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	if c == nil {
		c = config.DefaultConfig()
	}
	p, err := loadPersona(c)
	if err != nil {
		return nil, err
	}

	styles := ui.DefaultStyles()
	renderer := ui.NewRenderer(ui.TerminalWidth(os.Stdout, 100)-4, !ui.IsTerminal(os.Stdout))
	console := ui.NewConsole(os.Stdin, os.Stdout, p, styles, renderer)
	console.BindContext(ctx)

	return &app{
		cfg:     c,
		persona: p,
		styles:  styles,
		console: console,
		engines: voice.EnginesFromConfig(c, tactile.NewDirectExecutor()),
		scratch: voice.NewScratch(c.Voice.ScratchDir),
	}, nil
}

func loadPersona(c *config.Config) (persona.Persona, error) {
	if c.PersonaFile == "" {
		return persona.Default(), nil
	}
	p, err := persona.Load(c.PersonaFile)
	if err != nil {
		return persona.Persona{}, fmt.Errorf("persona %s: %w", c.PersonaFile, err)
	}
	return p, nil
}

// wire selects a provider from candidates and builds the orchestrator.
func (a *app) wire(ctx context.Context, candidates []perception.Candidate) (*wired, error) {
	sel := perception.NewSelector(candidates, a.cfg.LLM.GetProbeTimeout(), a.console.Out())
	handle, err := sel.Select(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("provider selected", zap.Stringer("provider", handle))

	reg := tools.NewRegistry()
	if err := research.RegisterAll(reg, research.FromConfig(a.cfg)); err != nil {
		return nil, err
	}
	search, err := reg.Best(tools.CategoryResearch)
	if err != nil {
		return nil, err
	}
	orch, err := agent.New(agent.Options{
		Persona:     a.persona,
		Registry:    capability.Build(a.persona, time.Now()),
		LLM:         perception.Traced(handle),
		Search:      search,
		Status:      a.console.Out(),
		TurnTimeout: a.cfg.GetTurnTimeout(),
	})
	if err != nil {
		return nil, err
	}
	return &wired{orch: orch, handle: handle, search: search}, nil
}

// interactive selects from the interactive candidate list.
func (a *app) interactive(ctx context.Context) (*wired, error) {
	return a.wire(ctx, perception.CandidatesFromConfig(a.cfg.LLM))
}

// interrupted reports whether err is the operator's interrupt, which ends
// a mode cleanly.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
