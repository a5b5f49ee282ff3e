package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/historiqa/corpusqa/internal/tracing"
)

func TestFeedbackHandler_RecordsAgainstResponseSpan(t *testing.T) {
	registry := tracing.NewMemoryRegistry()
	registry.Register(context.Background(), "sess1", tracing.ResponseQAID("qa1"), "resp-span", "")
	tracer := tracing.NewTracer(registry)

	d := &Dependencies{Tracer: tracer}

	relevance := 4
	body, _ := json.Marshal(map[string]any{
		"session_id": "sess1",
		"qa_id":      "qa1",
		"relevance":  relevance,
		"sentiment":  "positive",
		"tags":       []string{"helpful"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	d.feedbackHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

func TestFeedbackHandler_MissingIDsRejected(t *testing.T) {
	registry := tracing.NewMemoryRegistry()
	tracer := tracing.NewTracer(registry)
	d := &Dependencies{Tracer: tracer}

	body, _ := json.Marshal(map[string]any{"session_id": "sess1"})
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	d.feedbackHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestFeedbackHandler_NoMatchingSpan404s(t *testing.T) {
	registry := tracing.NewMemoryRegistry()
	tracer := tracing.NewTracer(registry)
	d := &Dependencies{Tracer: tracer}

	body, _ := json.Marshal(map[string]any{"session_id": "sess1", "qa_id": "qa1"})
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	d.feedbackHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
