package asyncqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/historiqa/corpusqa/internal/model"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestQueue_SubmitAndStatus(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.Submit(ctx, "user-1", map[string]any{"query": "what did darwin say about orchids"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Fatal("Submit returned empty id")
	}

	job, err := q.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != model.JobQueued {
		t.Errorf("Status = %q, want queued", job.Status)
	}
	if job.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", job.UserID)
	}
	if job.SubmittedQuery["query"] != "what did darwin say about orchids" {
		t.Errorf("SubmittedQuery not round-tripped: %+v", job.SubmittedQuery)
	}

	n, err := q.QueueLength(ctx)
	if err != nil {
		t.Fatalf("QueueLength: %v", err)
	}
	if n != 1 {
		t.Errorf("QueueLength = %d, want 1", n)
	}
}

func TestQueue_NextPopsFIFO(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id1, _ := q.Submit(ctx, "u", map[string]any{"i": 1})
	id2, _ := q.Submit(ctx, "u", map[string]any{"i": 2})

	first, err := q.Next(ctx, time.Second)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first != id1 {
		t.Errorf("first popped = %q, want %q (FIFO)", first, id1)
	}

	second, err := q.Next(ctx, time.Second)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second != id2 {
		t.Errorf("second popped = %q, want %q", second, id2)
	}
}

func TestQueue_NextEmptyReturnsNoError(t *testing.T) {
	q := newTestQueue(t)
	id, err := q.Next(context.Background(), 10*time.Millisecond)
	if err != nil {
		t.Fatalf("Next on empty queue: %v", err)
	}
	if id != "" {
		t.Errorf("Next on empty queue = %q, want empty", id)
	}
}

func TestQueue_UpdateStatusAndStoreResult(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, _ := q.Submit(ctx, "u", map[string]any{"q": "x"})

	if err := q.UpdateStatus(ctx, id, model.JobProcessing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	job, _ := q.Status(ctx, id)
	if job.Status != model.JobProcessing {
		t.Errorf("Status = %q, want processing", job.Status)
	}

	if err := q.StoreResult(ctx, id, map[string]any{"answer": "orchids are fascinating"}); err != nil {
		t.Fatalf("StoreResult: %v", err)
	}
	job, err := q.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status after result: %v", err)
	}
	if job.Status != model.JobCompleted {
		t.Errorf("Status = %q, want completed", job.Status)
	}
	if job.Result["answer"] != "orchids are fascinating" {
		t.Errorf("Result not round-tripped: %+v", job.Result)
	}
}

func TestQueue_StoreFailure(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, _ := q.Submit(ctx, "u", map[string]any{"q": "x"})
	if err := q.StoreFailure(ctx, id, "embedding backend unavailable"); err != nil {
		t.Fatalf("StoreFailure: %v", err)
	}

	job, err := q.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if job.Status != model.JobFailed {
		t.Errorf("Status = %q, want failed", job.Status)
	}
	if job.Error != "embedding backend unavailable" {
		t.Errorf("Error = %q, want embedding backend unavailable", job.Error)
	}
}

func TestQueue_StatusUnknownJob(t *testing.T) {
	q := newTestQueue(t)
	if _, err := q.Status(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected error for unknown job id")
	}
}
