// Package worker provides a bounded background pool for side-effect jobs
// that must not run on the webhook request path.
package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Job is a unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pool runs jobs on a fixed number of workers over a bounded queue.
// Dispatch never blocks: when the queue is full the job is dropped to the
// dead-letter log rather than stalling the caller.
type Pool struct {
	jobs    chan Job
	workers int
	logger  *slog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup

	// mu orders Dispatch's stopped-check-and-send against Stop closing jobs;
	// without it a dispatcher could send on the closed channel.
	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		logger:  logger,
	}
}

// Start launches the workers. Jobs run until Stop is called or ctx is
// cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.work(ctx)
		}
		p.logger.Info("worker pool started",
			"workers", p.workers,
			"queue_size", cap(p.jobs),
		)
	})
}

// Stop prevents new dispatches and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.jobs)
		p.mu.Unlock()
		p.wg.Wait()
		p.logger.Info("worker pool stopped")
	})
}

// Dispatch enqueues a job. It returns false when the pool is stopped or the
// queue is saturated; the caller owns the dead-letter decision.
func (p *Pool) Dispatch(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()

	for job := range p.jobs {
		select {
		case <-ctx.Done():
			p.logger.Warn("dropping job, pool context cancelled", "job", job.Name)
			continue
		default:
		}

		if err := p.run(ctx, job); err != nil {
			p.logger.Error("background job failed",
				"job", job.Name,
				"error", err,
			)
		}
	}
}

func (p *Pool) run(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("background job panicked",
				"job", job.Name,
				"panic", r,
			)
		}
	}()
	return job.Run(ctx)
}
