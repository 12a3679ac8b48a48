package perception

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracedClient wraps a client so every completion is recorded as a span.
type TracedClient struct {
	inner    LLMClient
	provider Provider
	model    string
	tracer   trace.Tracer
}

// Traced wraps the handle's client. The global tracer provider is used, so
// spans are dropped when tracing is disabled.
func Traced(h *Handle) *TracedClient {
	return &TracedClient{
		inner:    h.Client,
		provider: h.Provider,
		model:    h.Model,
		tracer:   otel.Tracer("personabot/perception"),
	}
}

// Complete sends a prompt and returns the completion.
func (c *TracedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *TracedClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.provider", string(c.provider)),
		attribute.String("llm.model", c.model),
		attribute.Int("llm.prompt_len", len(systemPrompt)+len(userPrompt)),
	))
	defer span.End()

	out, err := c.inner.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_len", len(out)))
	return out, nil
}
