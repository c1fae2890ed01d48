package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

const dequeueWait = 1 * time.Second

// Pool runs jobs from the broker on a fixed set of workers. Each job gets a
// hard execution ceiling; a job that exceeds it or panics is recorded as
// failed, never retried by the pool itself.
type Pool struct {
	broker      Broker
	results     ResultStore
	handlers    map[string]HandlerFunc
	concurrency int
	ceiling     time.Duration
	retention   time.Duration
	logger      log.Logger
	metrics     *Metrics
}

// NewPool creates a worker pool with the default execution ceiling and
// result retention.
func NewPool(broker Broker, results ResultStore, handlers map[string]HandlerFunc, concurrency int, logger log.Logger, metrics *Metrics) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	return &Pool{
		broker:      broker,
		results:     results,
		handlers:    handlers,
		concurrency: concurrency,
		ceiling:     ExecutionCeiling,
		retention:   ResultRetention,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run starts the workers and blocks until ctx is cancelled and all in-flight
// jobs have finished.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.work(ctx, n)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) work(ctx context.Context, n int) {
	L := p.logger.With("worker", n)
	L.Info(ctx, "worker started")

	for {
		if ctx.Err() != nil {
			L.Info(context.Background(), "worker stopped")
			return
		}

		job, err := p.broker.Dequeue(ctx, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				L.Info(context.Background(), "worker stopped")
				return
			}
			L.Error(ctx, err, "dequeue failed")
			// back off so a dead broker doesn't spin the loop
			_ = sleep(ctx, dequeueWait)
			continue
		}
		if job == nil {
			continue
		}

		p.process(ctx, L, job)
	}
}

// process runs one job to completion and records its result. Job execution
// errors never propagate: each job is isolated.
func (p *Pool) process(ctx context.Context, L log.Logger, job *Job) {
	L = L.With("job_id", job.ID, "job", job.Name)
	start := time.Now()

	res, err := p.execute(ctx, job)
	dur := time.Since(start)

	if err != nil {
		res = &Result{Status: ResultFailed, Error: err.Error()}
		L.Error(ctx, err, "job failed", "duration", dur.Seconds())
	} else {
		L.Info(ctx, "job complete", "status", string(res.Status), "duration", dur.Seconds())
	}

	res.JobID = job.ID
	res.Name = job.Name
	res.SentAt = time.Now().UTC()

	p.metrics.JobsTotal.WithLabelValues(job.Name, string(res.Status)).Inc()
	p.metrics.JobDuration.WithLabelValues(job.Name).Observe(dur.Seconds())

	// Record the result even if the job's own context expired.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := p.results.Put(rctx, res, p.retention); err != nil {
		L.Error(ctx, err, "failed to record job result")
	}
}

func (p *Pool) execute(ctx context.Context, job *Job) (res *Result, err error) {
	handler, ok := p.handlers[job.Name]
	if !ok {
		return nil, fmt.Errorf("unknown job %q", job.Name)
	}

	// Detach from the worker's lifetime so an in-flight job drains cleanly
	// during shutdown; the ceiling still bounds it.
	jctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.ceiling)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("job panic: %v", r)
		}
	}()

	return handler(jctx, job)
}
