// Package agent turns one line of operator input into a persona reply:
// dispatch, prompt building, crew execution and output sanitizing.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"personabot/internal/articulation"
	"personabot/internal/capability"
	"personabot/internal/crew"
	"personabot/internal/dispatch"
	"personabot/internal/logging"
	"personabot/internal/persona"
	"personabot/internal/tools"
	"personabot/internal/tracing"
	"personabot/internal/types"
)

// Options configures an Orchestrator.
type Options struct {
	Persona  persona.Persona
	Registry *capability.Registry
	LLM      types.LLMClient

	// Search is bound to capabilities that require a tool. May be nil, in
	// which case those capabilities fail with ErrToolRequired.
	Search *tools.Tool

	// Status receives progress lines such as "Researching: ...". May be nil.
	Status io.Writer

	// TurnTimeout bounds one capability run. Zero means no limit.
	TurnTimeout time.Duration
}

// Orchestrator implements types.Responder. It holds only read-only state
// after construction, so one instance may serve concurrent bridge requests.
type Orchestrator struct {
	persona     persona.Persona
	registry    *capability.Registry
	llm         types.LLMClient
	search      *tools.Tool
	status      io.Writer
	turnTimeout time.Duration
	processor   *articulation.ResponseProcessor
}

var _ types.Responder = (*Orchestrator)(nil)

// New validates opts and creates an orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.LLM == nil {
		return nil, errors.New("orchestrator requires a language model client")
	}
	if opts.Persona.IsZero() {
		return nil, errors.New("orchestrator requires a persona")
	}
	if opts.Registry == nil {
		opts.Registry = capability.Build(opts.Persona, time.Now())
	}
	status := opts.Status
	if status == nil {
		status = io.Discard
	}
	return &Orchestrator{
		persona:     opts.Persona,
		registry:    opts.Registry,
		llm:         opts.LLM,
		search:      opts.Search,
		status:      status,
		turnTimeout: opts.TurnTimeout,
		processor:   articulation.NewResponseProcessor(),
	}, nil
}

// Persona returns the persona replies are generated for.
func (o *Orchestrator) Persona() persona.Persona { return o.persona }

// Registry returns the capability registry.
func (o *Orchestrator) Registry() *capability.Registry { return o.registry }

// Stats returns sanitizer statistics for this orchestrator.
func (o *Orchestrator) Stats() articulation.ProcessorStats { return o.processor.GetStats() }

// Respond classifies input and produces the turn's reply. A missing
// argument is not an error: the reply text asks for it.
func (o *Orchestrator) Respond(ctx context.Context, input string) (types.Reply, error) {
	d := dispatch.Classify(input)
	ctx, span := tracing.Start(ctx, "turn", attribute.String(tracing.AttrDecision, d.Kind.String()))
	defer span.End()

	switch d.Kind {
	case dispatch.KindExit:
		return types.Reply{Exit: true}, nil
	case dispatch.KindInfo:
		return types.Reply{Info: d.Info}, nil
	case dispatch.KindMissingArgument:
		logging.Dispatch("%s invoked without an argument", d.Capability)
		return types.Reply{Text: dispatch.MissingArgumentMessage(d.Capability), Capability: string(d.Capability)}, nil
	case dispatch.KindCapability, dispatch.KindFreeform:
		text, err := o.Run(ctx, d.Capability, d.Argument)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "turn failed")
			return types.Reply{Capability: string(d.Capability)}, err
		}
		return types.Reply{Text: text, Capability: string(d.Capability)}, nil
	default:
		return types.Reply{}, fmt.Errorf("unhandled decision %s", d)
	}
}

// Run executes one capability and returns the sanitized result.
func (o *Orchestrator) Run(ctx context.Context, id capability.ID, arg string) (string, error) {
	c, ok := o.registry.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", types.ErrUnknownCapability, id)
	}
	prompt, err := o.registry.Prompt(id, arg)
	if err != nil {
		return "", err
	}

	ag := &crew.Agent{Profile: c.Agent, LLM: o.llm}
	if c.RequiresTool {
		if o.search == nil {
			return "", fmt.Errorf("%w: %s", types.ErrToolRequired, id)
		}
		ag.Tools = []*tools.Tool{o.search}
	}

	o.announce(id, arg)

	ctx, span := tracing.Start(ctx, "capability.run", attribute.String(tracing.AttrCapability, string(id)))
	defer span.End()
	if o.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.turnTimeout)
		defer cancel()
	}

	timer := logging.StartTimer(logging.CategoryCapability, "capability "+string(id))
	run := crew.New(crew.Task{Description: prompt.Description, ExpectedOutput: prompt.ExpectedOutput, Agent: ag})
	run.Hooks.OnToolCall = func(tool, input string) {
		fmt.Fprintf(o.status, "🔎 %s: %s\n", tool, input)
	}
	res, err := run.Kickoff(ctx)
	timer.Stop()
	if err != nil {
		logging.CapabilityError("%s failed: %v", id, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "capability failed")
		return "", fmt.Errorf("%w: %s: %w", types.ErrCapabilityExecutionFailed, id, err)
	}

	out := o.processor.Process(res.Output)
	for _, w := range out.Warnings {
		logging.Get(logging.CategoryArticulation).Warn("%s: %s", id, w)
	}
	logging.Capability("%s completed: %d chars", id, len(out.Surface))
	return out.Surface, nil
}

func (o *Orchestrator) announce(id capability.ID, arg string) {
	switch id {
	case capability.Introduce:
		fmt.Fprintf(o.status, "🎤 Generating %s's introduction...\n", o.persona.Name())
	case capability.Research:
		fmt.Fprintf(o.status, "🔍 Researching: %s\n", arg)
	case capability.Music:
		fmt.Fprintln(o.status, "🎵 Generating music recommendations...")
	default:
		fmt.Fprintf(o.status, "💭 %s is thinking...\n", o.persona.Name())
	}
}
