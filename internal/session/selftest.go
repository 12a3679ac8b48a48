package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"personabot/internal/articulation"
	"personabot/internal/capability"
	"personabot/internal/logging"
	"personabot/internal/perception"
	"personabot/internal/persona"
	"personabot/internal/tools"
	"personabot/internal/voice"
)

// Check is one self-test probe.
type Check struct {
	Name string
	// Optional checks are reported but do not fail the self-test.
	Optional bool
	Run      func(ctx context.Context) (detail string, err error)
}

// CheckResult is the outcome of one Check.
type CheckResult struct {
	Name     string
	Optional bool
	Detail   string
	Err      error
	Duration time.Duration
}

// Report collects check results in check order.
type Report struct {
	Results []CheckResult
}

// Passed reports whether every required check succeeded.
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if res.Err != nil && !res.Optional {
			return false
		}
	}
	return true
}

// RunChecks runs checks concurrently, at most limit at a time. A failing
// check does not cancel the others.
func RunChecks(ctx context.Context, checks []Check, limit int) Report {
	results := make([]CheckResult, len(checks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, c := range checks {
		g.Go(func() error {
			start := time.Now()
			detail, err := c.Run(ctx)
			results[i] = CheckResult{
				Name:     c.Name,
				Optional: c.Optional,
				Detail:   detail,
				Err:      err,
				Duration: time.Since(start),
			}
			if err != nil {
				logging.Get(logging.CategorySession).Warn("self-test %s failed: %v", c.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return Report{Results: results}
}

// SelfTestDeps are the components the standard checks inspect.
type SelfTestDeps struct {
	Handle   *perception.Handle
	Persona  persona.Persona
	Registry *capability.Registry
	Search   *tools.Tool
	Engines  voice.Engines
}

// StandardChecks returns the system self-test. None of the checks spend
// tokens or hit the network; the provider check reuses the start-up probe.
func StandardChecks(d SelfTestDeps) []Check {
	return []Check{
		{Name: "provider", Run: func(context.Context) (string, error) {
			if d.Handle == nil || d.Handle.Client == nil {
				return "", errors.New("no provider selected")
			}
			return d.Handle.String(), nil
		}},
		{Name: "persona", Run: func(context.Context) (string, error) {
			if d.Persona.IsZero() {
				return "", errors.New("persona not loaded")
			}
			if err := d.Persona.Document().Validate(); err != nil {
				return "", err
			}
			return d.Persona.Name(), nil
		}},
		{Name: "capabilities", Run: func(context.Context) (string, error) {
			return checkRegistry(d.Registry)
		}},
		{Name: "sanitizer", Run: func(context.Context) (string, error) {
			const in = "Hello *waves* friend"
			out := articulation.Clean(in)
			if out != "Hello friend" || articulation.Clean(out) != out {
				return "", fmt.Errorf("unexpected sanitizer output %q", out)
			}
			return "emphasis spans removed", nil
		}},
		{Name: "search tool", Run: func(context.Context) (string, error) {
			if d.Search == nil {
				return "", errors.New("no search tool configured")
			}
			if err := d.Search.Validate(); err != nil {
				return "", err
			}
			return d.Search.Name, nil
		}},
		{Name: "voice engines", Optional: true, Run: func(context.Context) (string, error) {
			return checkEngines(d.Engines)
		}},
	}
}

func checkRegistry(r *capability.Registry) (string, error) {
	if r == nil {
		return "", errors.New("no capability registry")
	}
	ids := r.IDs()
	if len(ids) != 4 {
		return "", fmt.Errorf("expected 4 capabilities, found %d", len(ids))
	}
	for _, id := range ids {
		c, _ := r.Get(id)
		arg := ""
		if c.NeedsArgument {
			arg = "self-test"
		}
		p, err := r.Prompt(id, arg)
		if err != nil {
			return "", fmt.Errorf("%s: %w", id, err)
		}
		if !strings.Contains(p.Description, r.Date()) {
			return "", fmt.Errorf("%s: prompt is missing the current date", id)
		}
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", "), nil
}

func checkEngines(e voice.Engines) (string, error) {
	report := e.Report()
	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		if err := report[name]; err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", name, err))
		}
	}
	if len(failed) > 0 {
		return "", fmt.Errorf("unavailable: %s", strings.Join(failed, ", "))
	}
	return "all engines available", nil
}

// SelfTest runs the standard checks and prints one line per check.
func SelfTest(ctx context.Context, term Terminal, d SelfTestDeps) Report {
	term.Notice("🧪 Testing system...")
	report := RunChecks(ctx, StandardChecks(d), 4)
	for _, r := range report.Results {
		switch {
		case r.Err == nil:
			term.Notice("✅ %s: PASSED (%s)", r.Name, r.Detail)
		case r.Optional:
			term.Notice("⚠️ %s: %v", r.Name, r.Err)
		default:
			term.Notice("❌ %s: FAILED (%v)", r.Name, r.Err)
		}
	}
	if report.Passed() {
		term.Notice("🎉 All tests passed! The assistant is ready to use.")
	}
	return report
}
