package asyncqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/historiqa/corpusqa/internal/model"
)

// popTimeout is how long Next blocks waiting for a job before returning
// empty and looping again to check ctx.Done().
const popTimeout = time.Second

// Processor runs the full retrieve-rerank-generate pipeline synchronously
// for one submitted query and returns the result blob to store, or an
// error whose message becomes the stored failure blob.
type Processor func(ctx context.Context, query map[string]any) (map[string]any, error)

// Worker pops jobs off the queue one at a time and runs them through
// Processor. Multiple Workers (in-process or across processes) can share
// one Queue; the queue itself is the only coordination point.
type Worker struct {
	queue     *Queue
	process   Processor
	processed int
}

// NewWorker constructs a Worker bound to queue and process.
func NewWorker(queue *Queue, process Processor) *Worker {
	return &Worker{queue: queue, process: process}
}

// Run blocks, processing jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Info("asyncqueue worker stopping", "processed", w.processed)
			return
		default:
		}

		id, err := w.queue.Next(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("asyncqueue worker: pop failed", "error", err)
			continue
		}
		if id == "" {
			continue
		}

		w.runOne(ctx, id)
	}
}

func (w *Worker) runOne(ctx context.Context, id string) {
	job, err := w.queue.Status(ctx, id)
	if err != nil {
		slog.Error("asyncqueue worker: read job failed", "id", id, "error", err)
		return
	}

	if err := w.queue.UpdateStatus(ctx, id, model.JobProcessing); err != nil {
		slog.Error("asyncqueue worker: mark processing failed", "id", id, "error", err)
		return
	}

	result, err := w.process(ctx, job.SubmittedQuery)
	if err != nil {
		if storeErr := w.queue.StoreFailure(ctx, id, err.Error()); storeErr != nil {
			slog.Error("asyncqueue worker: store failure failed", "id", id, "error", storeErr)
		}
		return
	}

	if err := w.queue.StoreResult(ctx, id, result); err != nil {
		slog.Error("asyncqueue worker: store result failed", "id", id, "error", err)
		return
	}

	w.processed++
}
