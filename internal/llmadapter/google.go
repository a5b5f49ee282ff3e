package llmadapter

import (
	"context"
)

// vertexClient is the subset of gcpclient.GenAIAdapter this backend needs;
// declaring it as an interface keeps llmadapter independent of the GCP
// client's construction details.
type vertexClient interface {
	GenerateContentStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan error)
}

// GoogleBackend adapts a Vertex AI Gemini client to the Backend interface.
// Stream ignores its temperature and model arguments: the model is the one
// the GenAIAdapter was constructed with, and no temperature is sent, so
// the service's default applies.
type GoogleBackend struct {
	client vertexClient
}

// NewGoogleBackend wraps an already-constructed Vertex AI client.
// Construction (and the credential check it performs) happens at the call
// site via gcpclient.NewGenAIAdapter.
func NewGoogleBackend(client vertexClient) *GoogleBackend {
	return &GoogleBackend{client: client}
}

func (b *GoogleBackend) Stream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, model string) (<-chan string, <-chan error) {
	return b.client.GenerateContentStream(ctx, systemPrompt, userPrompt)
}
