// Package asyncqueue implements the Redis-backed FIFO job queue behind
// POST /async and GET /async/{id}: a durable, horizontally-scalable
// hand-off between the HTTP surface and one or more worker processes
// running the same retrieval-to-generation pipeline synchronously.
package asyncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/historiqa/corpusqa/internal/model"
)

const queueKey = "llm_request_queue"

func requestKey(id string) string { return fmt.Sprintf("request:%s", id) }
func resultKey(id string) string  { return fmt.Sprintf("result:%s", id) }

// Queue wraps a Redis client with the request/result/queue key
// conventions the worker loop and HTTP handlers share.
type Queue struct {
	client *redis.Client
}

// New wraps an already-connected Redis client.
func New(client *redis.Client) *Queue {
	return &Queue{client: client}
}

// Submit allocates a request ID, persists its initial status hash with a
// 1-hour TTL, and pushes the ID onto the FIFO queue.
func (q *Queue) Submit(ctx context.Context, userID string, query map[string]any) (string, error) {
	id := uuid.NewString()

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return "", fmt.Errorf("asyncqueue: marshal query: %w", err)
	}

	key := requestKey(id)
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"status":     string(model.JobQueued),
		"created_at": time.Now().UTC().Format(time.RFC3339),
		"user_id":    userID,
		"query":      string(queryJSON),
	})
	pipe.Expire(ctx, key, model.AsyncJobTTL)
	pipe.LPush(ctx, queueKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("asyncqueue: submit job: %w", err)
	}
	return id, nil
}

// Status reads the stored job status and, when completed or failed, the
// result or error blob alongside it.
func (q *Queue) Status(ctx context.Context, id string) (*model.AsyncJob, error) {
	fields, err := q.client.HGetAll(ctx, requestKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("asyncqueue: read status: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("asyncqueue: job %q not found", id)
	}

	job := &model.AsyncJob{
		RequestID: id,
		UserID:    fields["user_id"],
		Status:    model.JobStatus(fields["status"]),
	}
	if created, err := time.Parse(time.RFC3339, fields["created_at"]); err == nil {
		job.CreatedAt = created
	}
	if rawQuery, ok := fields["query"]; ok {
		_ = json.Unmarshal([]byte(rawQuery), &job.SubmittedQuery)
	}

	switch job.Status {
	case model.JobCompleted:
		result, err := q.client.Get(ctx, resultKey(id)).Result()
		if err == nil {
			_ = json.Unmarshal([]byte(result), &job.Result)
		}
	case model.JobFailed:
		errMsg, err := q.client.Get(ctx, resultKey(id)).Result()
		if err == nil {
			job.Error = errMsg
		}
	}

	return job, nil
}

// UpdateStatus transitions a job's status, used by the worker loop.
func (q *Queue) UpdateStatus(ctx context.Context, id string, status model.JobStatus) error {
	if err := q.client.HSet(ctx, requestKey(id), "status", string(status)).Err(); err != nil {
		return fmt.Errorf("asyncqueue: update status: %w", err)
	}
	return nil
}

// StoreResult records a successful job's result blob with a 1-hour TTL
// and marks the job completed.
func (q *Queue) StoreResult(ctx context.Context, id string, result map[string]any) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("asyncqueue: marshal result: %w", err)
	}
	pipe := q.client.TxPipeline()
	pipe.Set(ctx, resultKey(id), resultJSON, model.AsyncJobTTL)
	pipe.HSet(ctx, requestKey(id), "status", string(model.JobCompleted))
	_, err = pipe.Exec(ctx)
	return err
}

// StoreFailure records a failed job's error message and marks it failed.
func (q *Queue) StoreFailure(ctx context.Context, id string, errMsg string) error {
	pipe := q.client.TxPipeline()
	pipe.Set(ctx, resultKey(id), errMsg, model.AsyncJobTTL)
	pipe.HSet(ctx, requestKey(id), "status", string(model.JobFailed))
	_, err := pipe.Exec(ctx)
	return err
}

// Next blocks up to timeout for the next queued job ID, returning ("",
// nil) on timeout rather than an error: an empty queue is the normal
// steady state, not a failure.
func (q *Queue) Next(ctx context.Context, timeout time.Duration) (string, error) {
	result, err := q.client.BRPop(ctx, timeout, queueKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("asyncqueue: pop next job: %w", err)
	}
	// BRPop returns [key, value]; value is the job ID.
	if len(result) != 2 {
		return "", fmt.Errorf("asyncqueue: unexpected brpop result %v", result)
	}
	return result[1], nil
}

// Stats summarizes current queue depth. ByStatus is part of the JSON shape
// but Queue.Stats leaves it unset.
type Stats struct {
	QueueLength int64          `json:"queueLength"`
	ByStatus    map[string]int `json:"byStatus"`
}

// QueueLength returns the number of jobs waiting to be popped.
func (q *Queue) QueueLength(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("asyncqueue: queue length: %w", err)
	}
	return n, nil
}

// Ping checks the underlying Redis connection, for the /api/health handler.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Stats reports current queue depth for /api/queue/stats. ByStatus counts
// are not maintained: with the result/status hashes expiring independently
// on a 1-hour TTL, a cheap accurate count isn't available without an
// auxiliary index this queue doesn't keep, so only depth is reported.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	n, err := q.QueueLength(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{QueueLength: n}, nil
}
