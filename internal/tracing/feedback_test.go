package tracing

import (
	"context"
	"testing"
)

func TestFindFeedbackSpan_FindsResponseSpanImmediately(t *testing.T) {
	registry := NewMemoryRegistry()
	registry.Register(context.Background(), "sess1", ResponseQAID("qa1"), "resp-span", "")

	tracer := NewTracer(registry)
	spanID, err := tracer.FindFeedbackSpan(context.Background(), "sess1", "qa1")
	if err != nil {
		t.Fatalf("FindFeedbackSpan: %v", err)
	}
	if spanID != "resp-span" {
		t.Errorf("spanID = %q, want resp-span", spanID)
	}
}

func TestFindFeedbackSpan_FallsBackToPlainQAID(t *testing.T) {
	registry := NewMemoryRegistry()
	registry.Register(context.Background(), "sess1", "qa1", "pipeline-span", "")

	tracer := NewTracer(registry)
	spanID, err := tracer.FindFeedbackSpan(context.Background(), "sess1", "qa1")
	if err != nil {
		t.Fatalf("FindFeedbackSpan: %v", err)
	}
	if spanID != "pipeline-span" {
		t.Errorf("spanID = %q, want pipeline-span (fallback)", spanID)
	}
}

func TestFindFeedbackSpan_ErrorsWhenNothingMatches(t *testing.T) {
	registry := NewMemoryRegistry()
	tracer := NewTracer(registry)

	_, err := tracer.FindFeedbackSpan(context.Background(), "sess1", "qa1")
	if err == nil {
		t.Fatal("expected error when no span is registered")
	}
}
