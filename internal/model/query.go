package model

// MaxQueryLength is the maximum accepted length, in runes, of a query string.
const MaxQueryLength = 2000

// RetrievalRequest is the normalized input to the retriever for a single ask.
type RetrievalRequest struct {
	Query            string
	K                int
	CorpusFilter     string // "" or CorpusAll means no restriction
	DirectionFilter  string // "sent" | "received" | ""
	TimePeriodFilter string // "YYYY" or "YYYY-YYYY" or ""
	SessionID        string
	QAID             string
}

// RankedDocument is a Document carrying both fusion and rerank scores.
// Documents handed to the generator are ordered by descending RerankScore,
// ties broken by original retrieval position (stable sort).
type RankedDocument struct {
	Document
	RRFScore    float64 `json:"rrfScore"`
	RerankScore float64 `json:"rerankScore"`
}
