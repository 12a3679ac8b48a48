// Package crew runs agents through a sequential list of tasks. Each agent
// reasons for a bounded number of iterations and may call its tools with a
// plain-text protocol:
//
//	ACTION: web_search
//	INPUT: pink floyd live recordings
//
// A reply without an ACTION line is the agent's final answer.
package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"personabot/internal/capability"
	"personabot/internal/logging"
	"personabot/internal/tools"
	"personabot/internal/types"
)

// Stop reasons.
const (
	StoppedCompleted     = "completed"
	StoppedMaxIterations = "max_iterations"
	StoppedError         = "error"
)

// ErrEmptyAnswer is returned when an agent never produced any text.
var ErrEmptyAnswer = errors.New("agent produced no answer")

// Agent is a persona-driven worker bound to a model and optional tools.
type Agent struct {
	Profile capability.Profile
	LLM     types.LLMClient
	Tools   []*tools.Tool
}

// Task is one unit of work for an agent.
type Task struct {
	Description    string
	ExpectedOutput string
	Agent          *Agent
}

// ToolCallRecord records one tool invocation.
type ToolCallRecord struct {
	Tool   string
	Input  string
	Result string
	Error  string
}

// TurnRecord records one model call.
type TurnRecord struct {
	Iteration int
	Output    string
	ToolCalls []ToolCallRecord
	IsFinal   bool
}

// TaskResult is the outcome of one task.
type TaskResult struct {
	Role          string
	Output        string
	Turns         []TurnRecord
	StoppedReason string
	Duration      time.Duration
}

// Result is the outcome of a crew run. Output is the last task's output.
type Result struct {
	Output string
	Tasks  []TaskResult
}

// Hooks are optional progress callbacks.
type Hooks struct {
	OnTaskStart func(role string)
	OnToolCall  func(tool, input string)
}

// Crew executes tasks sequentially; each task sees the previous output as
// context.
type Crew struct {
	Tasks []Task
	Hooks Hooks
}

// New creates a crew for tasks.
func New(tasks ...Task) *Crew {
	return &Crew{Tasks: tasks}
}

// Kickoff runs every task in order and returns the final output.
func (c *Crew) Kickoff(ctx context.Context) (*Result, error) {
	if len(c.Tasks) == 0 {
		return nil, errors.New("crew has no tasks")
	}

	result := &Result{}
	var prior string
	for i, task := range c.Tasks {
		if task.Agent == nil || task.Agent.LLM == nil {
			return nil, fmt.Errorf("task %d has no agent model", i)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.Hooks.OnTaskStart != nil {
			c.Hooks.OnTaskStart(task.Agent.Profile.Role)
		}

		tr, err := c.runTask(ctx, task, prior)
		result.Tasks = append(result.Tasks, tr)
		if err != nil {
			return result, fmt.Errorf("task %q: %w", task.Agent.Profile.Role, err)
		}
		prior = tr.Output
	}
	result.Output = prior
	return result, nil
}

func (c *Crew) runTask(ctx context.Context, task Task, prior string) (TaskResult, error) {
	agent := task.Agent
	ctx, span := otel.Tracer("personabot/crew").Start(ctx, "crew.task")
	span.SetAttributes(attribute.String("crew.task.role", agent.Profile.Role))
	defer span.End()

	start := time.Now()
	res := TaskResult{Role: agent.Profile.Role}
	maxIter := agent.Profile.MaxIter
	if maxIter <= 0 {
		maxIter = 3
	}

	system := systemPrompt(agent)
	var scratch []string
	for iter := 1; iter <= maxIter; iter++ {
		final := iter == maxIter
		user := userPrompt(task, prior, scratch, final, len(agent.Tools) > 0)

		logging.CrewDebug("%s iteration %d/%d", agent.Profile.Role, iter, maxIter)
		out, err := agent.LLM.CompleteWithSystem(ctx, system, user)
		if err != nil {
			res.StoppedReason = StoppedError
			res.Duration = time.Since(start)
			span.RecordError(err)
			span.SetStatus(codes.Error, "completion failed")
			return res, err
		}

		turn := TurnRecord{Iteration: iter, Output: out}
		action, input, ok := parseAction(out)
		if !ok || len(agent.Tools) == 0 || final {
			turn.IsFinal = true
			res.Turns = append(res.Turns, turn)
			res.Output = finalAnswer(out)
			res.StoppedReason = StoppedCompleted
			if ok && final {
				res.StoppedReason = StoppedMaxIterations
			}
			break
		}

		call := c.callTool(ctx, agent, action, input)
		turn.ToolCalls = append(turn.ToolCalls, call)
		res.Turns = append(res.Turns, turn)
		scratch = append(scratch, observation(call))
	}

	res.Duration = time.Since(start)
	if strings.TrimSpace(res.Output) == "" {
		span.SetStatus(codes.Error, "empty answer")
		return res, ErrEmptyAnswer
	}
	logging.Crew("%s finished in %v (%s, %d turns)", res.Role, res.Duration, res.StoppedReason, len(res.Turns))
	return res, nil
}

func (c *Crew) callTool(ctx context.Context, agent *Agent, name, input string) ToolCallRecord {
	rec := ToolCallRecord{Tool: name, Input: input}
	if c.Hooks.OnToolCall != nil {
		c.Hooks.OnToolCall(name, input)
	}

	tool := findTool(agent.Tools, name)
	if tool == nil {
		rec.Error = fmt.Sprintf("unknown tool %q", name)
		return rec
	}

	args := map[string]any{}
	if key := primaryArg(tool); key != "" {
		args[key] = input
	}
	out, err := tools.ExecuteTool(ctx, tool, args)
	if err != nil {
		rec.Error = err.Error()
		logging.Get(logging.CategoryCrew).Warn("tool %s failed: %v", name, err)
		return rec
	}
	rec.Result = out.Result
	return rec
}

func findTool(list []*tools.Tool, name string) *tools.Tool {
	for _, t := range list {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// primaryArg is the argument the free-text INPUT is bound to.
func primaryArg(t *tools.Tool) string {
	if len(t.Schema.Required) > 0 {
		return t.Schema.Required[0]
	}
	for name, p := range t.Schema.Properties {
		if p.Type == "string" {
			return name
		}
	}
	return ""
}
