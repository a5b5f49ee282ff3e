package llmadapter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// AnthropicBackend talks to the Anthropic Messages API.
type AnthropicBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicBackend constructs a backend from ANTHROPIC_API_KEY. Missing
// credentials fail construction immediately.
func NewAnthropicBackend() (*AnthropicBackend, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("llmadapter: missing ANTHROPIC_API_KEY")
	}
	return &AnthropicBackend{
		apiKey:     apiKey,
		baseURL:    "https://api.anthropic.com/v1",
		httpClient: &http.Client{Timeout: 0},
	}, nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Stream      bool               `json:"stream"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// anthropicEvent covers the two streaming event shapes this backend
// extracts text from: content_block_delta (token deltas) and the
// terminal error event.
type anthropicEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Text string `json:"text"`
	} `json:"delta,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (b *AnthropicBackend) Stream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, model string) (<-chan string, <-chan error) {
	textCh := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(textCh)
		defer close(errCh)

		body, err := json.Marshal(anthropicRequest{
			Model:       model,
			System:      systemPrompt,
			MaxTokens:   4096,
			Temperature: temperature,
			Stream:      true,
			Messages:    []anthropicMessage{{Role: "user", Content: userPrompt}},
		})
		if err != nil {
			errCh <- fmt.Errorf("llmadapter.anthropic: marshal request: %w", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			errCh <- fmt.Errorf("llmadapter.anthropic: create request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", b.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := b.httpClient.Do(req)
		if err != nil {
			errCh <- fmt.Errorf("llmadapter.anthropic: request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errCh <- fmt.Errorf("llmadapter.anthropic: unexpected status %d", resp.StatusCode)
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var event anthropicEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				continue
			}
			if event.Type == "error" && event.Error != nil {
				errCh <- fmt.Errorf("llmadapter.anthropic: API error: %s", event.Error.Message)
				return
			}
			if event.Type == "content_block_delta" && event.Delta != nil && event.Delta.Text != "" {
				textCh <- event.Delta.Text
			}
			if event.Type == "message_stop" {
				break
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- fmt.Errorf("llmadapter.anthropic: read error: %w", err)
		}
	}()

	return textCh, errCh
}
