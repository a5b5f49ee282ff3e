package llmadapter

import (
	"context"
	"testing"
)

type stubBackend struct {
	name string
}

func (s *stubBackend) Stream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, model string) (<-chan string, <-chan error) {
	textCh := make(chan string, 1)
	errCh := make(chan error, 1)
	textCh <- s.name
	close(textCh)
	close(errCh)
	return textCh, errCh
}

func TestAdapter_SelectsProviderCaseInsensitively(t *testing.T) {
	a, err := New(Config{
		OpenAI:          &stubBackend{name: "openai"},
		Anthropic:       &stubBackend{name: "anthropic"},
		DefaultProvider: "openai",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	textCh, _ := a.Stream(context.Background(), "sys", "user", 0.2, "model-x", "anthropic")
	if got := <-textCh; got != "anthropic" {
		t.Errorf("expected anthropic backend selected, got %q", got)
	}
}

func TestAdapter_FallsBackOnUnknownProvider(t *testing.T) {
	a, err := New(Config{
		OpenAI:          &stubBackend{name: "openai"},
		DefaultProvider: "openai",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	textCh, _ := a.Stream(context.Background(), "sys", "user", 0.2, "model-x", "nonexistent-provider")
	if got := <-textCh; got != "openai" {
		t.Errorf("expected fallback to default backend, got %q", got)
	}
}

func TestAdapter_FallsBackOnUnconfiguredProvider(t *testing.T) {
	a, err := New(Config{
		OpenAI:          &stubBackend{name: "openai"},
		DefaultProvider: "openai",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Anthropic is a recognized provider name but has no backend configured.
	textCh, _ := a.Stream(context.Background(), "sys", "user", 0.2, "model-x", "anthropic")
	if got := <-textCh; got != "openai" {
		t.Errorf("expected fallback to default backend, got %q", got)
	}
}

func TestNew_RejectsMissingDefaultBackend(t *testing.T) {
	_, err := New(Config{DefaultProvider: "openai"})
	if err == nil {
		t.Fatal("expected error when default provider has no configured backend")
	}
}
