package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"github.com/codebuildervaibhav/call-transcription/internal/pipeline"
	"github.com/codebuildervaibhav/call-transcription/internal/types"
)

// ErrPoolStopped is returned when submitting to a stopped pool
var ErrPoolStopped = errors.New("worker pool stopped")

// Runner executes one pipeline run
type Runner interface {
	Run(ctx context.Context, url string, observer pipeline.Observer) *types.RunResult
}

// WorkerPool runs pipeline jobs on a fixed set of goroutines so that long
// runs never block the goroutines accepting requests.
type WorkerPool struct {
	jobQueue    chan *Job
	workerCount int
	runner      Runner

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, runner Runner) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 100
	}
	return &WorkerPool{
		jobQueue:    make(chan *Job, queueSize),
		workerCount: workerCount,
		runner:      runner,
	}
}

// Start initializes all workers
func (wp *WorkerPool) Start() {
	log.Printf("Starting worker pool with %d workers", wp.workerCount)
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop closes the queue and waits for in-flight runs to finish
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	log.Println("Worker pool stopped")
}

// Submit enqueues a job and blocks until its run finishes or ctx is done.
// A run that already started is not interrupted when the caller gives up.
func (wp *WorkerPool) Submit(ctx context.Context, job *Job) (*types.RunResult, error) {
	job.ctx = context.WithoutCancel(ctx)

	wp.mu.RLock()
	if wp.stopped {
		wp.mu.RUnlock()
		return nil, ErrPoolStopped
	}
	select {
	case wp.jobQueue <- job:
	case <-ctx.Done():
		wp.mu.RUnlock()
		return nil, ctx.Err()
	}
	wp.mu.RUnlock()

	log.Printf("Job enqueued (url: %s)", job.URL)

	select {
	case result := <-job.done:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// worker processes jobs from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	log.Printf("Worker %d started", id)

	for job := range wp.jobQueue {
		job.done <- wp.process(id, job)
	}
}

// process runs one job, turning a panic into a failed result
func (wp *WorkerPool) process(workerID int, job *Job) (result *types.RunResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker %d: PANIC processing %s: %v\n%s",
				workerID, job.URL, r, string(debug.Stack()))
			result = &types.RunResult{
				SourceURL: job.URL,
				Status:    types.StatusFailed,
				Stage:     types.StageFailed,
				Err: &pipeline.StageError{
					Kind:  pipeline.KindInternal,
					Stage: types.StageFailed,
					Err:   fmt.Errorf("worker panic: %v", r),
				},
			}
		}
	}()

	started := time.Now()
	log.Printf("Worker %d: processing %s (queued %s)", workerID, job.URL, started.Sub(job.CreatedAt).Round(time.Millisecond))
	return wp.runner.Run(job.ctx, job.URL, job.Observer)
}
