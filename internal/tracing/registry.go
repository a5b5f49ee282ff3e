// Package tracing builds the pipeline > (guardrail, retrieval, reranking,
// generation > response, references) span tree for one ask request and
// maintains the registry that lets a later feedback submission find the
// span it annotates.
package tracing

import (
	"context"
	"time"
)

// RootQAID is the sentinel qa_id under which a session's first
// (root) pipeline span is registered.
const RootQAID = "_root_"

// ResponseQAID returns the key a generation span is registered under:
// distinct from the pipeline span's own qa_id so feedback can target the
// answer specifically.
func ResponseQAID(qaID string) string {
	return qaID + "_response"
}

// Record is one registered (session, qa_id) -> span mapping.
type Record struct {
	SessionID string
	QAID      string
	SpanID    string
	TraceID   string
	CreatedAt time.Time
}

// SpanRegistry is the interface both the development (embedded) and
// production (shared) implementations satisfy.
type SpanRegistry interface {
	Register(ctx context.Context, sessionID, qaID, spanID, traceID string) error
	RegisterRoot(ctx context.Context, sessionID, spanID string) error
	Find(ctx context.Context, sessionID, qaID string) (string, bool, error)
	FindByTrace(ctx context.Context, traceID string) (string, bool, error)
	FindRoot(ctx context.Context, sessionID string) (string, bool, error)
	List(ctx context.Context, sessionID string) ([]Record, error)
}

// TTL is how long a registered span mapping is retained.
const TTL = time.Hour
