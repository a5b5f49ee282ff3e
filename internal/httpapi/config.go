package httpapi

import "net/http"

// configResponse is the stable subset of configuration safe to expose to
// clients: versions, models, thresholds, corpus options. Credentials,
// connection strings, and internal timeouts never appear here.
type configResponse struct {
	Environment          string   `json:"environment"`
	Version              string   `json:"version"`
	LLMProvider          string   `json:"llmProvider"`
	LLMModel             string   `json:"llmModel"`
	RetrieverModule      string   `json:"retrieverModule"`
	EmbeddingModel       string   `json:"embeddingModel"`
	SearchType           string   `json:"searchType"`
	SearchK              int      `json:"searchK"`
	ScoreThreshold       float64  `json:"scoreThreshold"`
	CitationLimit        int      `json:"citationLimit"`
	PromptCachingEnabled bool     `json:"promptCachingEnabled"`
	AsyncEnabled         bool     `json:"asyncEnabled"`
	CorpusOptions        []string `json:"corpusOptions,omitempty"`
}

func (d *Dependencies) configHandler(w http.ResponseWriter, r *http.Request) {
	var corpusOptions []string
	if d.Retriever != nil {
		corpusOptions = d.Retriever.Capabilities.CorpusOptions
	}

	writeJSON(w, http.StatusOK, configResponse{
		Environment:          d.Config.Environment,
		Version:              d.Version,
		LLMProvider:          d.Config.LLMProvider,
		LLMModel:             d.Config.LLMModel,
		RetrieverModule:      d.Config.Retriever.RetrieverModule,
		EmbeddingModel:       d.Config.Retriever.EmbeddingModel,
		SearchType:           d.Config.Retriever.SearchType,
		SearchK:              d.Config.Retriever.SearchK,
		ScoreThreshold:       d.Config.Retriever.ScoreThreshold,
		CitationLimit:        d.Config.Retriever.CitationLimit,
		PromptCachingEnabled: d.Config.PromptCachingEnabled,
		AsyncEnabled:         d.Queue != nil,
		CorpusOptions:        corpusOptions,
	})
}
