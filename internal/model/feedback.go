package model

// Feedback is a post-hoc annotation submitted after the originating
// request has fully ended. It associates with the `<qa_id>_response` span
// if one is registered, otherwise falls back to the plain qa_id span.
type Feedback struct {
	SessionID string `json:"session_id"`
	QAID      string `json:"qa_id"`

	Sentiment string `json:"sentiment,omitempty"` // "positive" | "negative"

	Relevance       *int `json:"relevance,omitempty"`
	FactualAccuracy *int `json:"factual_accuracy,omitempty"`
	Clarity         *int `json:"clarity,omitempty"`
	SourceQuality   *int `json:"source_quality,omitempty"`
	QuestionRating  *int `json:"question_rating,omitempty"`
	AnalysisQuality *int `json:"analysis_quality,omitempty"`
	CorpusFidelity  *int `json:"corpus_fidelity,omitempty"`
	Difficulty      *int `json:"question_difficulty,omitempty"`

	FeedbackText string          `json:"feedback_text,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Faults       map[string]bool `json:"faults,omitempty"`

	AIValidation map[string]any `json:"ai_validation,omitempty"`
	TraceID      string         `json:"trace_id,omitempty"`
}
