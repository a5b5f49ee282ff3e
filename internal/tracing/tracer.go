package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "internal/tracing"

// Tracer builds the pipeline > (guardrail, retrieval, reranking,
// generation > response, references) span tree for one ask request and
// registers the spans a later feedback lookup needs to find.
type Tracer struct {
	registry SpanRegistry
}

// NewTracer wraps a SpanRegistry; spans themselves are created via the
// globally-installed OTel tracer provider.
func NewTracer(registry SpanRegistry) *Tracer {
	return &Tracer{registry: registry}
}

// PipelineSpan starts the top-level span for one ask request, registering
// it under (session_id, qa_id) and, if this session has no root yet,
// under (session_id, "_root_").
func (t *Tracer) PipelineSpan(ctx context.Context, sessionID, qaID string) (context.Context, trace.Span, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline")
	span.SetAttributes(attribute.String("session.id", sessionID), attribute.String("qa.id", qaID))

	spanID := span.SpanContext().SpanID().String()
	traceID := span.SpanContext().TraceID().String()

	if err := t.registry.Register(ctx, sessionID, qaID, spanID, traceID); err != nil {
		return ctx, span, fmt.Errorf("tracing: register pipeline span: %w", err)
	}
	if err := t.registry.RegisterRoot(ctx, sessionID, spanID); err != nil {
		return ctx, span, fmt.Errorf("tracing: register root span: %w", err)
	}
	return ctx, span, nil
}

// ChildSpan starts one of the fixed pipeline stages (guardrail, retrieval,
// reranking, generation, response, references) under the current context.
func (t *Tracer) ChildSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name)
}

// GenerationSpan starts the "generation" span and registers it under
// (session_id, "{qa_id}_response") so a future feedback submission can
// find the answer span specifically, distinct from the pipeline span.
func (t *Tracer) GenerationSpan(ctx context.Context, sessionID, qaID string) (context.Context, trace.Span, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "generation")
	spanID := span.SpanContext().SpanID().String()
	traceID := span.SpanContext().TraceID().String()

	if err := t.registry.Register(ctx, sessionID, ResponseQAID(qaID), spanID, traceID); err != nil {
		return ctx, span, fmt.Errorf("tracing: register generation span: %w", err)
	}
	return ctx, span, nil
}
