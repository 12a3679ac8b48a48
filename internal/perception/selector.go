package perception

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"personabot/internal/logging"
	"personabot/internal/types"
)

// errSkipped marks a candidate whose prerequisite was absent.
var errSkipped = errors.New("skipped")

// Candidate is one provider in the selection order.
type Candidate struct {
	Provider    Provider
	Model       string
	Temperature float64

	// Prerequisite reports why the candidate cannot be tried (typically a
	// missing credential). A non-nil result skips the candidate without probing.
	Prerequisite func() error

	// Factory constructs the client with the candidate's fixed parameters.
	Factory func() (LLMClient, error)
}

// Handle is the selected backend. It is owned by one session.
type Handle struct {
	Provider    Provider
	Model       string
	Temperature float64
	// Live is true when the liveness probe succeeded.
	Live   bool
	Client LLMClient
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s (%s, temperature %.1f)", h.Provider, h.Model, h.Temperature)
}

// Selector picks the first candidate whose probe succeeds.
type Selector struct {
	candidates   []Candidate
	probeTimeout time.Duration
	status       io.Writer
}

// NewSelector creates a selector over candidates in priority order. Status
// lines for the operator go to status (may be nil).
func NewSelector(candidates []Candidate, probeTimeout time.Duration, status io.Writer) *Selector {
	if status == nil {
		status = io.Discard
	}
	return &Selector{candidates: candidates, probeTimeout: probeTimeout, status: status}
}

// Select returns the first live candidate. Each candidate gets exactly one
// probe; when every candidate fails the error is a
// *types.ProviderUnavailableError naming each candidate and its failure.
func (s *Selector) Select(ctx context.Context) (*Handle, error) {
	ctx, span := otel.Tracer("personabot/perception").Start(ctx, "provider.select")
	defer span.End()

	failures := make([]*types.CandidateError, 0, len(s.candidates))
	for i, c := range s.candidates {
		h, err := s.try(ctx, c)
		if err == nil {
			fmt.Fprintf(s.status, "✅ Connected to %s\n", h)
			logging.Perception("selected provider %s model=%s", h.Provider, h.Model)
			span.SetAttributes(attribute.String("provider", string(h.Provider)))
			return h, nil
		}

		failures = append(failures, &types.CandidateError{Candidate: string(c.Provider), Err: err})
		if errors.Is(err, errSkipped) {
			fmt.Fprintf(s.status, "⚠️ %s unavailable (%v)\n", c.Provider, errors.Unwrap(err))
		} else {
			fmt.Fprintf(s.status, "⚠️ %s connection failed: %v\n", c.Provider, err)
		}
		if i+1 < len(s.candidates) {
			fmt.Fprintf(s.status, "🔄 Falling back to %s...\n", s.candidates[i+1].Provider)
		}
		logging.PerceptionWarn("candidate %s rejected: %v", c.Provider, err)
	}

	err := &types.ProviderUnavailableError{Failures: failures}
	span.RecordError(err)
	span.SetStatus(codes.Error, "no provider available")
	logging.PerceptionError("%v", err)
	return nil, err
}

func (s *Selector) try(ctx context.Context, c Candidate) (*Handle, error) {
	if c.Prerequisite != nil {
		if err := c.Prerequisite(); err != nil {
			return nil, fmt.Errorf("%w: %w", errSkipped, err)
		}
	}

	fmt.Fprintf(s.status, "🤖 Attempting to connect to %s (%s)...\n", c.Provider, c.Model)

	client, err := c.Factory()
	if err != nil {
		return nil, fmt.Errorf("construct: %w", err)
	}

	ctx, span := otel.Tracer("personabot/perception").Start(ctx, "provider.probe")
	span.SetAttributes(attribute.String("provider", string(c.Provider)), attribute.String("model", c.Model))
	defer span.End()

	probeCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.probeTimeout > 0 {
		probeCtx, cancel = context.WithTimeout(ctx, s.probeTimeout)
	}
	defer cancel()

	timer := logging.StartTimer(logging.CategoryPerception, "probe "+string(c.Provider))
	if p, ok := client.(Prober); ok {
		err = p.Probe(probeCtx)
	} else {
		_, err = client.Complete(probeCtx, ProbePrompt)
	}
	timer.Stop()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe failed")
		return nil, err
	}

	return &Handle{
		Provider:    c.Provider,
		Model:       c.Model,
		Temperature: c.Temperature,
		Live:        true,
		Client:      client,
	}, nil
}
