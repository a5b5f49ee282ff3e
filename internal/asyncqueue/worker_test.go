package asyncqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/historiqa/corpusqa/internal/model"
)

func TestWorker_ProcessesJobToCompletion(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Submit(ctx, "u", map[string]any{"query": "darwin and barnacles"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	w := NewWorker(q, func(ctx context.Context, query map[string]any) (map[string]any, error) {
		return map[string]any{"answer": "barnacles, extensively"}, nil
	})

	runCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	popped, err := q.Next(runCtx, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if popped != id {
		t.Fatalf("popped %q, want %q", popped, id)
	}
	w.runOne(ctx, popped)

	job, err := q.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != model.JobCompleted {
		t.Errorf("Status = %q, want completed", job.Status)
	}
	if job.Result["answer"] != "barnacles, extensively" {
		t.Errorf("Result = %+v", job.Result)
	}
	if w.processed != 1 {
		t.Errorf("processed = %d, want 1", w.processed)
	}
}

func TestWorker_ProcessorErrorStoresFailure(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, _ := q.Submit(ctx, "u", map[string]any{"query": "x"})

	w := NewWorker(q, func(ctx context.Context, query map[string]any) (map[string]any, error) {
		return nil, errors.New("retriever unavailable")
	})
	w.runOne(ctx, id)

	job, err := q.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != model.JobFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
	if job.Error != "retriever unavailable" {
		t.Errorf("Error = %q, want retriever unavailable", job.Error)
	}
	if w.processed != 0 {
		t.Errorf("processed = %d, want 0 on failure", w.processed)
	}
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	q := newTestQueue(t)
	w := NewWorker(q, func(ctx context.Context, query map[string]any) (map[string]any, error) {
		return map[string]any{}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
