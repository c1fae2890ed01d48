// Package redisq implements the job broker and result store on Redis.
// Jobs are JSON envelopes on a list (LPUSH/BRPOP gives at-least-once
// delivery to one worker); results are TTL'd JSON values keyed by job ID.
package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/linnemanlabs/incidentd/internal/jobs"
)

const (
	queueKey     = "incidentd:jobs"
	resultPrefix = "incidentd:results:"

	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
)

// Queue is a Redis-backed jobs.Broker and jobs.ResultStore.
type Queue struct {
	client *redis.Client
}

// New parses the Redis URL, connects, and pings once to validate
// connectivity before anything is enqueued.
func New(ctx context.Context, redisURL string) (*Queue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout

	client := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Queue{client: client}, nil
}

// Close closes the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}

// Enqueue pushes a job envelope onto the queue.
func (q *Queue) Enqueue(ctx context.Context, job *jobs.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, queueKey, data).Err(); err != nil {
		return fmt.Errorf("lpush job: %w", err)
	}
	return nil
}

// Dequeue blocks up to wait for the next job. Returns (nil, nil) when the
// queue stays empty for the whole window.
func (q *Queue) Dequeue(ctx context.Context, wait time.Duration) (*jobs.Job, error) {
	res, err := q.client.BRPop(ctx, wait, queueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("brpop job: %w", err)
	}
	// res is [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("brpop job: unexpected reply of %d elements", len(res))
	}

	var job jobs.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

// Put records a job result with the given retention TTL.
func (q *Queue) Put(ctx context.Context, res *jobs.Result, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := q.client.Set(ctx, resultPrefix+res.JobID, data, ttl).Err(); err != nil {
		return fmt.Errorf("set result: %w", err)
	}
	return nil
}

// Get retrieves a job result by job ID. A result past its retention window
// reports (nil, false, nil), same as one that never existed.
func (q *Queue) Get(ctx context.Context, jobID string) (*jobs.Result, bool, error) {
	data, err := q.client.Get(ctx, resultPrefix+jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get result: %w", err)
	}

	var res jobs.Result
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, false, fmt.Errorf("unmarshal result: %w", err)
	}
	return &res, true, nil
}
