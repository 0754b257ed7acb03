// Package worker runs the fixed-size pool that drains the job queue. Each
// worker is an independent goroutine looping claim → execute → commit;
// workers share only the job store and the executor, never per-job state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mapcrafter2048/judge0-docker-cli/internal/store"
)

// JobExecutor executes a single claimed job to a terminal result.
type JobExecutor interface {
	Execute(ctx context.Context, job store.Job) (store.CompleteJobParams, error)
}

// Pool polls the database for pending jobs and executes them concurrently.
type Pool struct {
	store    store.Querier
	executor JobExecutor
	size     int
	logger   *slog.Logger

	pollInterval  time.Duration
	sweepInterval time.Duration
	staleAfter    time.Duration
}

type Options struct {
	PollInterval time.Duration
	// SweepInterval enables the stale-claim sweeper when positive: claims
	// older than StaleAfter go back to pending so a dead worker loses no job.
	SweepInterval time.Duration
	StaleAfter    time.Duration
}

func New(s store.Querier, executor JobExecutor, size int, logger *slog.Logger, opts Options) *Pool {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 250 * time.Millisecond
	}
	return &Pool{
		store:         s,
		executor:      executor,
		size:          size,
		logger:        logger,
		pollInterval:  opts.PollInterval,
		sweepInterval: opts.SweepInterval,
		staleAfter:    opts.StaleAfter,
	}
}

// Size returns the configured number of workers.
func (p *Pool) Size() int { return p.size }

// Start spawns the worker goroutines (and the sweeper, if enabled) and
// blocks until ctx is cancelled and every worker has returned.
func (p *Pool) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		workerID := fmt.Sprintf("worker-%d", i+1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.loop(ctx, workerID)
		}()
	}
	if p.sweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.sweepLoop(ctx)
		}()
	}
	p.logger.Info("worker pool started", "workers", p.size, "poll_interval", p.pollInterval)
	wg.Wait()
}

func (p *Pool) loop(ctx context.Context, workerID string) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain the queue before sleeping again.
			for p.processNext(ctx, workerID) {
			}
		}
	}
}

// processNext claims and executes one job. It reports whether a job was
// processed, so the caller knows to immediately try for another.
func (p *Pool) processNext(ctx context.Context, workerID string) bool {
	job, err := p.store.ClaimNextJob(ctx, workerID)
	if err != nil {
		if !errors.Is(err, store.ErrNoJob) && ctx.Err() == nil {
			p.logger.Error("claim failed", "worker_id", workerID, "err", err)
		}
		return false
	}

	p.logger.Info("job claimed", "worker_id", workerID, "job_id", job.ID, "language", job.Language)
	started := time.Now()

	result, err := p.executor.Execute(ctx, job)
	if err != nil {
		// Process-wide condition (shutdown mid-execution). The claim stays
		// in place for the sweeper to revoke.
		p.logger.Warn("execution aborted", "worker_id", workerID, "job_id", job.ID, "err", err)
		return false
	}

	// The commit must survive the caller's shutdown.
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := p.store.CompleteJob(commitCtx, result); err != nil {
		if errors.Is(err, store.ErrNotRunning) {
			p.logger.Warn("claim was revoked before commit", "worker_id", workerID, "job_id", job.ID)
		} else {
			p.logger.Error("commit failed", "worker_id", workerID, "job_id", job.ID, "err", err)
		}
		return ctx.Err() == nil
	}

	observeJob(string(result.Status), time.Since(started))
	p.logger.Info("job finished",
		"worker_id", workerID,
		"job_id", job.ID,
		"status", result.Status,
		"duration_ms", time.Since(started).Milliseconds())
	return ctx.Err() == nil
}

func (p *Pool) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.store.RequeueStaleJobs(ctx, p.staleAfter)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Error("stale sweep failed", "err", err)
				}
				continue
			}
			if n > 0 {
				p.logger.Warn("requeued stale claims", "count", n, "older_than", p.staleAfter)
			}
		}
	}
}
