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

// OpenAIBackend talks to the OpenAI chat completions API, or any
// OpenAI-compatible endpoint (used for the local-runtime provider with a
// different base URL and no API key requirement).
type OpenAIBackend struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIBackend constructs a backend bound to apiKey read from the
// environment at construction time. Missing credentials fail fast rather
// than surfacing as a confusing runtime 401.
func NewOpenAIBackend(apiKeyEnv, baseURL string) (*OpenAIBackend, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("llmadapter: missing %s", apiKeyEnv)
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIBackend{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 0},
	}, nil
}

// NewLocalRuntimeBackend constructs a backend for a locally-hosted,
// OpenAI-compatible inference server. No API key is required.
func NewLocalRuntimeBackend(baseURL string) (*OpenAIBackend, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("llmadapter: missing local runtime base URL")
	}
	return &OpenAIBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 0},
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (b *OpenAIBackend) Stream(ctx context.Context, systemPrompt, userPrompt string, temperature float64, model string) (<-chan string, <-chan error) {
	textCh := make(chan string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(textCh)
		defer close(errCh)

		body, err := json.Marshal(chatRequest{
			Model:       model,
			Temperature: temperature,
			Stream:      true,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
		})
		if err != nil {
			errCh <- fmt.Errorf("llmadapter.openai: marshal request: %w", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			errCh <- fmt.Errorf("llmadapter.openai: create request: %w", err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if b.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+b.apiKey)
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			errCh <- fmt.Errorf("llmadapter.openai: request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errCh <- fmt.Errorf("llmadapter.openai: unexpected status %d", resp.StatusCode)
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
			if data == "[DONE]" {
				break
			}

			var chunk chatStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if chunk.Error != nil {
				errCh <- fmt.Errorf("llmadapter.openai: API error: %s", chunk.Error.Message)
				return
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				textCh <- chunk.Choices[0].Delta.Content
			}
		}
		if err := scanner.Err(); err != nil {
			errCh <- fmt.Errorf("llmadapter.openai: read error: %w", err)
		}
	}()

	return textCh, errCh
}
