package httpapi

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/historiqa/corpusqa/internal/model"
	"github.com/historiqa/corpusqa/internal/orchestrator"
	"github.com/historiqa/corpusqa/internal/sse"
	"github.com/historiqa/corpusqa/internal/validate"
)

// chatTurnDTO is one prior question/answer pair as the client sends it.
type chatTurnDTO struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// askInput is the request body shared by /api/ask/stream and
// /api/ask/async; the non-streaming /query route accepts the narrower
// queryInput below instead.
type askInput struct {
	Question             string        `json:"question"`
	CorpusFilter         string        `json:"corpus_filter"`
	PreviousCorpusFilter string        `json:"previous_corpus_filter"`
	DirectionFilter      string        `json:"direction_filter"`
	TimePeriodFilter     string        `json:"time_period_filter"`
	ChatHistory          []chatTurnDTO `json:"chat_history"`
	SessionID            string        `json:"session_id"`
	QAID                 string        `json:"qa_id"`
	Provider             string        `json:"provider"`
}

func (in askInput) toAskRequest(k int) orchestrator.AskRequest {
	history := make([]orchestrator.ChatTurn, 0, len(in.ChatHistory))
	for _, t := range in.ChatHistory {
		history = append(history, orchestrator.ChatTurn{User: t.User, Assistant: t.Assistant})
	}
	return orchestrator.AskRequest{
		Question:         in.Question,
		CorpusFilter:     in.CorpusFilter,
		DirectionFilter:  in.DirectionFilter,
		TimePeriodFilter: in.TimePeriodFilter,
		ChatHistory:      history,
		SessionID:        withFallbackID(in.SessionID),
		QAID:             withFallbackID(in.QAID),
		Provider:         in.Provider,
		K:                k,
	}
}

func withFallbackID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// queryInput is the legacy non-streaming shape accepted by /query and
// /api/query.
type queryInput struct {
	Query        string `json:"query"`
	SessionID    string `json:"session_id"`
	QAID         string `json:"qa_id"`
	CorpusFilter string `json:"corpus_filter"`
}

type queryResponse struct {
	Result        []string        `json:"result"`
	QAID          string          `json:"qa_id"`
	Citations     []model.Citation `json:"citations"`
	DocumentCount int             `json:"document_count"`
}

func (d *Dependencies) queryHandler(w http.ResponseWriter, r *http.Request) {
	var in queryInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validate.Query(in.Query); err != nil {
		writeError(w, http.StatusBadRequest, "invalid query")
		return
	}

	req := askInput{Question: in.Query, SessionID: in.SessionID, QAID: in.QAID, CorpusFilter: in.CorpusFilter}.
		toAskRequest(d.Config.Retriever.SearchK)

	answer, citations, err := d.Orchestrator.Run(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to answer query")
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Result:        []string{answer},
		QAID:          req.QAID,
		Citations:     citations,
		DocumentCount: documentCount(citations),
	})
}

func (d *Dependencies) askStreamHandler(w http.ResponseWriter, r *http.Request) {
	var in askInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validate.Query(in.Question); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question")
		return
	}

	req := in.toAskRequest(d.Config.Retriever.SearchK)

	writer, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	_ = d.Orchestrator.Stream(r.Context(), req, writer)
}

// documentCount sums the chunk count each citation was aggregated from,
// reporting how much underlying source material fed the answer rather
// than just the number of citation cards shown.
func documentCount(citations []model.Citation) int {
	total := 0
	for _, c := range citations {
		total += c.TotalChunks
	}
	return total
}
