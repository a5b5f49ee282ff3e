package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// feedbackRetryDelays are the bounded retry waits for locating a response
// span: the generation span may not have finished registering yet when
// feedback for it arrives moments after the stream completes.
var feedbackRetryDelays = []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond}

// Annotation is one structured feedback axis attached to a span.
type Annotation struct {
	Name  string
	Label string
	Score *float64
}

// FindFeedbackSpan looks up the response span for (sessionID, qaID) with
// bounded retries, falling back to the plain qa_id span on a miss. It
// returns an error only when neither lookup succeeds after retries.
func (t *Tracer) FindFeedbackSpan(ctx context.Context, sessionID, qaID string) (string, error) {
	responseKey := ResponseQAID(qaID)

	var spanID string
	var found bool
	var err error

	for attempt := 0; ; attempt++ {
		spanID, found, err = t.registry.Find(ctx, sessionID, responseKey)
		if err == nil && found {
			return spanID, nil
		}
		if attempt >= len(feedbackRetryDelays) {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(feedbackRetryDelays[attempt]):
		}
	}

	spanID, found, err = t.registry.Find(ctx, sessionID, qaID)
	if err != nil {
		return "", fmt.Errorf("tracing: find fallback span: %w", err)
	}
	if !found {
		return "", fmt.Errorf("tracing: no span found for session %q qa %q", sessionID, qaID)
	}
	return spanID, nil
}

// RecordAnnotations logs one structured record per feedback axis, tagged
// with the response span's id for correlation at the log-aggregation layer.
// By the time feedback arrives the generation span has already ended, so
// OTel's public API gives no way to attach an event to it directly; a
// log line carrying span_id/trace_id is the supported way to join the two
// after the fact.
func RecordAnnotations(spanID, traceID string, annotations []Annotation) {
	for _, a := range annotations {
		args := []any{"span_id", spanID, "feedback.label", a.Label}
		if traceID != "" {
			args = append(args, "trace_id", traceID)
		}
		if a.Score != nil {
			args = append(args, "feedback.score", *a.Score)
		}
		slog.Info("feedback."+a.Name, args...)
	}
}
