package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/historiqa/corpusqa/internal/asyncqueue"
	"github.com/historiqa/corpusqa/internal/orchestrator"
	"github.com/historiqa/corpusqa/internal/validate"
)

type asyncSubmitResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

func (d *Dependencies) asyncSubmitHandler(w http.ResponseWriter, r *http.Request) {
	if d.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "async queue unavailable")
		return
	}

	var in askInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if err := validate.Query(in.Question); err != nil {
		writeError(w, http.StatusBadRequest, "invalid question")
		return
	}
	req := in.toAskRequest(d.Config.Retriever.SearchK)

	payload, err := json.Marshal(req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}
	var query map[string]any
	if err := json.Unmarshal(payload, &query); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	id, err := d.Queue.Submit(r.Context(), "", query)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "async queue unavailable")
		return
	}

	writeJSON(w, http.StatusAccepted, asyncSubmitResponse{RequestID: id, Status: "queued"})
}

func (d *Dependencies) asyncStatusHandler(w http.ResponseWriter, r *http.Request) {
	if d.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "async queue unavailable")
		return
	}

	id := chi.URLParam(r, "id")
	job, err := d.Queue.Status(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// NewProcessor builds the asyncqueue.Processor the worker runs each popped
// job through: the same orchestrator pipeline the synchronous /query route
// uses, fed by the JSON-shaped query every submission is marshaled to in
// asyncSubmitHandler.
func NewProcessor(o *orchestrator.Orchestrator) asyncqueue.Processor {
	return func(ctx context.Context, query map[string]any) (map[string]any, error) {
		payload, err := json.Marshal(query)
		if err != nil {
			return nil, err
		}
		var req orchestrator.AskRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}

		answer, citations, err := o.Run(ctx, req)
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"answer":         answer,
			"citations":      citations,
			"qa_id":          req.QAID,
			"document_count": documentCount(citations),
		}, nil
	}
}
