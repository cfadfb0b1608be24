// Package scheduler runs periodic jobs. Each job re-arms only after its
// previous run returned, so a slow run delays the next one instead of
// overlapping it.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Scheduler struct {
	jobs   []Job
	logger *zap.Logger
	wg     sync.WaitGroup
}

func New(logger *zap.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:   jobs,
		logger: logger.Named("scheduler"),
	}
}

// Start launches every job in its own goroutine and returns immediately.
// Jobs run once right away. Cancelling ctx stops further runs; a run that is
// already in flight is allowed to finish.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(ctx, job)
		}()
	}
}

// Wait blocks until every job loop has exited.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) loop(ctx context.Context, job Job) {
	log := s.logger.With(zap.String("job", job.Name))
	log.Info("Job started", zap.Duration("interval", job.Interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Job stopped")
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			log.Info("Job stopped")
			return
		}

		s.runOnce(context.WithoutCancel(ctx), job, log)
		if job.Interval <= 0 {
			log.Info("Job has no interval, not re-arming")
			return
		}
		timer.Reset(job.Interval)
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job, log *zap.Logger) {
	t0 := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("Job panicked",
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
			)
		}
	}()

	if err := job.Run(ctx); err != nil {
		log.Warn("Job run failed",
			zap.Error(err),
			zap.Duration("took", time.Since(t0)),
		)
		return
	}
	log.Debug("Job run finished", zap.Duration("took", time.Since(t0)))
}
