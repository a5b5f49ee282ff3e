package httpapi

import (
	"net/http"

	"github.com/historiqa/corpusqa/internal/model"
	"github.com/historiqa/corpusqa/internal/tracing"
)

func (d *Dependencies) feedbackHandler(w http.ResponseWriter, r *http.Request) {
	var fb model.Feedback
	if !decodeJSON(w, r, &fb) {
		return
	}
	if fb.SessionID == "" || fb.QAID == "" {
		writeError(w, http.StatusBadRequest, "session_id and qa_id are required")
		return
	}

	spanID, err := d.Tracer.FindFeedbackSpan(r.Context(), fb.SessionID, fb.QAID)
	if err != nil {
		writeError(w, http.StatusNotFound, "no matching response found for this feedback")
		return
	}

	tracing.RecordAnnotations(spanID, fb.TraceID, feedbackAnnotations(fb))

	writeJSON(w, http.StatusOK, map[string]string{"message": "feedback recorded", "status": "ok"})
}

// feedbackAnnotations flattens a Feedback's per-axis ratings, sentiment,
// tags, and fault flags into the fixed set of named annotations
// RecordAnnotations logs against the resolved span.
func feedbackAnnotations(fb model.Feedback) []tracing.Annotation {
	var out []tracing.Annotation

	addRating := func(name string, v *int) {
		if v == nil {
			return
		}
		score := float64(*v)
		out = append(out, tracing.Annotation{Name: name, Label: name, Score: &score})
	}
	addRating("relevance", fb.Relevance)
	addRating("factual_accuracy", fb.FactualAccuracy)
	addRating("clarity", fb.Clarity)
	addRating("source_quality", fb.SourceQuality)
	addRating("question_rating", fb.QuestionRating)
	addRating("analysis_quality", fb.AnalysisQuality)
	addRating("corpus_fidelity", fb.CorpusFidelity)
	addRating("difficulty", fb.Difficulty)

	if fb.Sentiment != "" {
		out = append(out, tracing.Annotation{Name: "sentiment", Label: fb.Sentiment})
	}
	for _, tag := range fb.Tags {
		out = append(out, tracing.Annotation{Name: "tag", Label: tag})
	}
	for fault, triggered := range fb.Faults {
		if triggered {
			out = append(out, tracing.Annotation{Name: "fault", Label: fault})
		}
	}

	return out
}
