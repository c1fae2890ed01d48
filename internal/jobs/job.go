// Package jobs defines the asynchronous job model and the dispatch/worker
// machinery around it. Jobs are fire-and-forget from the producer's side:
// the broker delivers each payload at-least-once to one worker, and results
// are retained in the result store for a bounded window.
package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// Job names on the wire.
const (
	NameNotifyEmail       = "notify_email"
	NameNotifyMessaging   = "notify_messaging"
	NameRefreshStatistics = "refresh_statistics"
)

const (
	// ExecutionCeiling is the hard per-job execution limit. A job still
	// running past this is aborted and recorded as failed.
	ExecutionCeiling = 300 * time.Second

	// ResultRetention is how long a job result stays queryable.
	ResultRetention = 3600 * time.Second
)

// Job is the envelope placed on the broker. Payload is job-specific JSON.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NotificationPayload is the payload for notify_email and notify_messaging.
type NotificationPayload struct {
	IncidentID int64  `json:"incident_id"`
	Text       string `json:"text"`
}

// ResultStatus is the terminal state recorded for a job.
type ResultStatus string

const (
	// ResultSent means a notification job completed
	ResultSent ResultStatus = "sent"

	// ResultUpdated means the statistics job completed
	ResultUpdated ResultStatus = "updated"

	// ResultFailed means the job panicked, errored, or hit the ceiling
	ResultFailed ResultStatus = "failed"
)

// Result is what a worker records after running a job, keyed by job ID.
type Result struct {
	JobID      string           `json:"job_id"`
	Name       string           `json:"name"`
	Status     ResultStatus     `json:"status"`
	IncidentID int64            `json:"incident_id,omitempty"`
	Counts     map[string]int64 `json:"counts,omitempty"`
	SentAt     time.Time        `json:"sent_at"`
	Error      string           `json:"error,omitempty"`
}

// Broker moves job envelopes between producers and workers.
type Broker interface {
	Enqueue(ctx context.Context, job *Job) error

	// Dequeue blocks up to wait for a job. (nil, nil) means nothing was
	// available within the window.
	Dequeue(ctx context.Context, wait time.Duration) (*Job, error)
}

// ResultStore retains job results for a bounded window.
type ResultStore interface {
	Put(ctx context.Context, res *Result, ttl time.Duration) error
	Get(ctx context.Context, jobID string) (*Result, bool, error)
}
