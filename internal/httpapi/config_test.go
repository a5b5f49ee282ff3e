package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/historiqa/corpusqa/internal/config"
	"github.com/historiqa/corpusqa/internal/retriever"
)

func TestConfigHandler(t *testing.T) {
	d := &Dependencies{
		Config: &config.Config{
			Environment: "development",
			LLMProvider: "google",
			LLMModel:    "gemini-1.5-pro",
			Retriever: config.RetrieverConfig{
				RetrieverModule: "darwin",
				EmbeddingModel:  "text-embedding-004",
				SearchType:      "hybrid",
				SearchK:         20,
				ScoreThreshold:  0.5,
				CitationLimit:   10,
			},
		},
		Retriever: &retriever.Retriever{
			Name: "darwin",
			Capabilities: retriever.Capabilities{
				CorpusOptions: []string{"darwin", "hansard"},
			},
		},
		Version: "0.1.0",
	}

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	d.configHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp configResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RetrieverModule != "darwin" {
		t.Errorf("retrieverModule = %q, want darwin", resp.RetrieverModule)
	}
	if resp.AsyncEnabled {
		t.Errorf("asyncEnabled = true, want false when Queue is nil")
	}
	if len(resp.CorpusOptions) != 2 {
		t.Errorf("corpusOptions = %v, want 2 entries", resp.CorpusOptions)
	}
}
