// Package llmadapter provides a uniform streaming interface over the
// supported LLM providers (OpenAI, Anthropic, Google Vertex AI, a local
// OpenAI-compatible runtime, and Amazon Bedrock), normalizing each
// provider's chunk framing to a single channel-of-strings shape.
package llmadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Backend is one provider's streaming chat completion call. Each
// implementation parses its own provider's stream framing and emits plain
// text chunks; the Adapter passes those channels through unchanged and has
// no shared chunk-extraction step.
type Backend interface {
	Stream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, model string) (<-chan string, <-chan error)
}

// Adapter dispatches stream() calls to the configured provider, falling
// back to a default provider (with a logged warning) for unrecognized
// names.
type Adapter struct {
	backends       map[string]Backend
	defaultProvider string
}

// Config is the set of constructed, already-authenticated backends the
// Adapter dispatches across. A nil entry means that provider is
// unavailable in this deployment (e.g. no credentials configured); Stream
// falls back to the default provider, with a logged warning, when the
// requested backend is nil.
type Config struct {
	OpenAI        Backend
	Anthropic     Backend
	Google        Backend
	LocalRuntime  Backend
	Bedrock       Backend
	DefaultProvider string
}

// The five accepted provider names in canonical (uppercased) form; New and
// Stream uppercase the names they are given before looking them up.
const (
	ProviderOpenAI       = "OPENAI"
	ProviderAnthropic    = "ANTHROPIC"
	ProviderGoogle       = "GOOGLE"
	ProviderLocalRuntime = "LOCAL-RUNTIME"
	ProviderBedrock      = "BEDROCK"
)

// New builds an Adapter from already-constructed backends. defaultProvider
// must name one of the non-nil backends in cfg; construction fails loudly
// rather than silently picking an arbitrary fallback.
func New(cfg Config) (*Adapter, error) {
	backends := map[string]Backend{
		ProviderOpenAI:       cfg.OpenAI,
		ProviderAnthropic:    cfg.Anthropic,
		ProviderGoogle:       cfg.Google,
		ProviderLocalRuntime: cfg.LocalRuntime,
		ProviderBedrock:      cfg.Bedrock,
	}

	defaultKey := strings.ToUpper(cfg.DefaultProvider)
	if backends[defaultKey] == nil {
		return nil, fmt.Errorf("llmadapter: default provider %q has no configured backend", cfg.DefaultProvider)
	}

	return &Adapter{backends: backends, defaultProvider: defaultKey}, nil
}

// Stream is the adapter's one public operation: provider selection is by
// uppercased name; an unrecognized or unconfigured provider falls back to
// the default with a logged warning rather than failing the request.
func (a *Adapter) Stream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, model, provider string) (<-chan string, <-chan error) {
	key := strings.ToUpper(provider)
	backend, ok := a.backends[key]
	if !ok || backend == nil {
		slog.Warn("llmadapter: unknown or unconfigured provider, falling back to default",
			"requested", provider, "default", a.defaultProvider)
		backend = a.backends[a.defaultProvider]
	}
	return backend.Stream(ctx, systemPrompt, userPrompt, temperature, model)
}
