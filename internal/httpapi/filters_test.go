package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/historiqa/corpusqa/internal/retriever"
)

func TestFiltersHandler_DirectionSupported(t *testing.T) {
	d := &Dependencies{
		Retriever: &retriever.Retriever{
			Capabilities: retriever.Capabilities{
				CorpusFiltering:     true,
				CorpusOptions:       []string{"darwin"},
				DirectionFiltering:  true,
				TimePeriodFiltering: true,
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	rec := httptest.NewRecorder()
	d.filtersHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp filtersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Direction.Supported {
		t.Errorf("direction.supported = false, want true")
	}
	if len(resp.Direction.Options) != 2 {
		t.Errorf("direction.options = %v, want 2 entries", resp.Direction.Options)
	}
	if !resp.Corpus.Supported || len(resp.Corpus.Options) != 1 {
		t.Errorf("corpus = %+v, want supported with 1 option", resp.Corpus)
	}
}

func TestFiltersHandler_DirectionUnsupportedOmitsOptions(t *testing.T) {
	d := &Dependencies{
		Retriever: &retriever.Retriever{
			Capabilities: retriever.Capabilities{TimePeriodFiltering: true},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/filters", nil)
	rec := httptest.NewRecorder()
	d.filtersHandler(rec, req)

	var resp filtersResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Direction.Supported {
		t.Errorf("direction.supported = true, want false")
	}
	if len(resp.Direction.Options) != 0 {
		t.Errorf("direction.options = %v, want none", resp.Direction.Options)
	}
}
