package model

import "time"

// JobStatus is the lifecycle state of an AsyncJob. Transitions are
// monotonic: queued -> processing -> (completed | failed).
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// AsyncJobTTL is how long a job's status/result record is retained.
const AsyncJobTTL = time.Hour

// AsyncJob is a submitted request processed out-of-band by a worker.
type AsyncJob struct {
	RequestID      string         `json:"requestId"`
	SubmittedQuery map[string]any `json:"submittedQuery"`
	UserID         string         `json:"userId,omitempty"`
	Status         JobStatus      `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	Result         map[string]any `json:"result,omitempty"`
	Error          string         `json:"error,omitempty"`
}
