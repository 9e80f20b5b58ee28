// Package queue implements the Queue Manager (§4.G): a bounded worker pool
// draining a FIFO of (jobId, CreationRequest) pairs and driving the
// Pipeline for each.
package queue

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/eroom-api/internal/models"
	"github.com/jmylchreest/eroom-api/internal/store"
)

// Runner is the subset of Pipeline the Queue Manager drives. Accepting an
// interface here (rather than *pipeline.Pipeline) keeps queue free of a
// direct dependency on the pipeline package's LLM/Mesh client wiring.
type Runner interface {
	Run(ctx context.Context, jobID string, req models.CreationRequest) *models.ResultDocument
}

type item struct {
	jobID string
	req   models.CreationRequest
}

// Config holds Queue Manager configuration.
type Config struct {
	WorkerCount         int           // W, default 1
	ShutdownGracePeriod time.Duration // T seconds, default 30s
}

// Queue is the Queue Manager. It owns no job state beyond its FIFO channel
// and the active/completed counters; the Store is the system of record.
type Queue struct {
	runner  Runner
	store   *store.Store
	jobs    chan item
	workers int
	grace   time.Duration

	stop sync.Once
	done chan struct{}
	wg   sync.WaitGroup

	active    int64
	completed int64

	logger *slog.Logger
}

// New constructs a Queue. The queue channel is unbounded in spirit (§4.G:
// "if step 3 would block indefinitely the submitter is allowed to wait") —
// implemented with a large buffered channel (4096 items) so Submit
// practically never blocks; workers receive from it directly.
func New(runner Runner, st *store.Store, cfg Config, logger *slog.Logger) *Queue {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.ShutdownGracePeriod == 0 {
		cfg.ShutdownGracePeriod = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		runner:  runner,
		store:   st,
		jobs:    make(chan item, 4096),
		workers: cfg.WorkerCount,
		grace:   cfg.ShutdownGracePeriod,
		done:    make(chan struct{}),
		logger:  logger.With("component", "queue"),
	}
}

// Start launches the worker pool. Each worker blocks on the job channel
// until work arrives or the queue is stopped.
func (q *Queue) Start(ctx context.Context) {
	q.logger.Info("starting", "workers", q.workers, "shutdown_grace_period", q.grace)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.runWorker(ctx, i)
	}
}

// Submit performs the four submission steps of §4.G: generate a jobId,
// register it QUEUED in the Store, enqueue, and return the jobId. If ctx is
// cancelled while enqueueing, the Store registration is rolled back.
func (q *Queue) Submit(ctx context.Context, req models.CreationRequest) (string, error) {
	jobID := newJobID()

	if err := q.store.Register(jobID); err != nil {
		return "", fmt.Errorf("register job: %w", err)
	}

	select {
	case q.jobs <- item{jobID: jobID, req: req}:
		return jobID, nil
	case <-ctx.Done():
		q.store.Unregister(jobID)
		return "", fmt.Errorf("submit cancelled: %w", ctx.Err())
	case <-q.done:
		q.store.Unregister(jobID)
		return "", fmt.Errorf("queue is shutting down")
	}
}

// Counters reports the current metrics for /health and /queue/status.
func (q *Queue) Counters() models.QueueCounters {
	return models.QueueCounters{
		Queued:        int64(len(q.jobs)),
		Active:        atomic.LoadInt64(&q.active),
		Completed:      atomic.LoadInt64(&q.completed),
		MaxConcurrent: q.workers,
	}
}

// Stop signals workers to drain their current item and exit, then waits up
// to the configured grace period before returning. Items still queued when
// Stop is called are drained best-effort by workers already running; items
// that never reach a worker are left QUEUED in the Store (never observed as
// FAILED, matching §4.G's "in-flight jobs are stored as FAILED if they
// cannot complete" — queued-but-untaken jobs were never in flight).
func (q *Queue) Stop() {
	q.stop.Do(func() { close(q.done) })

	waitDone := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		q.logger.Info("stopped cleanly")
	case <-time.After(q.grace):
		q.logger.Warn("shutdown grace period exceeded, forcing exit", "active", atomic.LoadInt64(&q.active))
	}
}

func (q *Queue) runWorker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	for {
		select {
		case <-q.done:
			return
		case <-ctx.Done():
			return
		case it := <-q.jobs:
			q.process(ctx, workerID, it)
		}
	}
}

func (q *Queue) process(ctx context.Context, workerID int, it item) {
	atomic.AddInt64(&q.active, 1)
	defer atomic.AddInt64(&q.active, -1)

	if err := q.store.Update(it.jobID, models.JobStatusProcessing); err != nil {
		q.logger.Error("failed to mark job processing", "worker_id", workerID, "job_id", it.jobID, "error", err)
		return
	}

	q.logger.Info("processing job", "worker_id", workerID, "job_id", it.jobID)

	doc := q.runner.Run(ctx, it.jobID, it.req)

	status := models.JobStatusCompleted
	if !doc.Success {
		status = models.JobStatusFailed
	}

	if err := q.store.StoreFinal(it.jobID, status, doc); err != nil {
		q.logger.Error("failed to store final result", "worker_id", workerID, "job_id", it.jobID, "error", err)
		return
	}

	atomic.AddInt64(&q.completed, 1)
	q.logger.Info("completed job", "worker_id", workerID, "job_id", it.jobID, "status", status)
}

// newJobID derives a compact opaque job id from a ULID: its low 8 entropy
// bytes, hex-encoded to a 16-hex-char random suffix (§3).
func newJobID() string {
	id := ulid.Make()
	b := id.Bytes()
	return hex.EncodeToString(b[8:])
}
