package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned by Enqueue before Start.
	ErrNotStarted = errors.New("queue not started")
	// ErrClosed is returned by Enqueue once Stop has begun.
	ErrClosed = errors.New("queue closed")
	// ErrFull is returned when the buffer has no room. Enqueue never blocks
	// the request path.
	ErrFull = errors.New("queue full")
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. Returning an error schedules a retry.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	MaxDelay     time.Duration
	DrainTimeout time.Duration
	Logger       *zap.Logger
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 16
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Stats counts job outcomes since Start.
type Stats struct {
	Processed int64
	Retried   int64
	Failed    int64
}

// Queue fans jobs out to a fixed set of goroutines. Failed jobs retry in
// place with exponential backoff. Stop drains what was already accepted.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.SugaredLogger

	jobs   chan Job
	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup

	mu     sync.RWMutex
	state  int
	closed chan struct{}

	processed atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64
}

const (
	stateIdle = iota
	stateRunning
	stateClosed
)

// NewQueue builds an idle queue.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.Sugar().With("queue", name),
		jobs:    make(chan Job, cfg.BufferSize),
		closed:  make(chan struct{}),
	}
}

// Start launches the workers. Jobs keep the values of ctx but not its
// cancellation, so a shutdown signal does not abort work Stop will drain.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.state = stateRunning
	q.log.Infow("queue started", "workers", q.cfg.Workers, "buffer", q.cfg.BufferSize)
}

// Stop refuses new jobs, waits up to DrainTimeout for accepted ones, then
// cancels whatever is still running.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return
	}
	q.state = stateClosed
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(q.cfg.DrainTimeout):
		q.log.Warnw("drain timed out, cancelling workers", "pending", len(q.jobs))
		q.cancel()
		<-done
	}
	q.cancel()
	close(q.closed)

	s := q.Stats()
	q.log.Infow("queue stopped", "processed", s.Processed, "retried", s.Retried, "failed", s.Failed)
}

// Done is closed once Stop has returned.
func (q *Queue) Done() <-chan struct{} {
	return q.closed
}

// Enqueue accepts job without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	switch q.state {
	case stateIdle:
		return ErrNotStarted
	case stateClosed:
		return ErrClosed
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrFull
	}
}

// Stats returns a snapshot of the outcome counters.
func (q *Queue) Stats() Stats {
	return Stats{
		Processed: q.processed.Load(),
		Retried:   q.retried.Load(),
		Failed:    q.failed.Load(),
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.process(job)
	}
}

func (q *Queue) process(job Job) {
	err := retry.Do(
		func() error {
			job.Attempt++
			return q.handler(q.ctx, job)
		},
		retry.Context(q.ctx),
		retry.Attempts(uint(q.cfg.MaxRetries+1)),
		retry.Delay(q.cfg.RetryDelay),
		retry.MaxDelay(q.cfg.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			q.retried.Add(1)
			q.log.Warnw("job failed, retrying", "job_id", job.ID, "type", job.Type, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		q.failed.Add(1)
		q.log.Errorw("job dropped", "job_id", job.ID, "type", job.Type, "attempts", job.Attempt, "age", time.Since(job.Enqueued), "error", err)
		return
	}
	q.processed.Add(1)
}
