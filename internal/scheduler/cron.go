// Package scheduler runs periodic jobs such as the dataset reimport.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alexivanou/gazetteer/internal/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a unit of scheduled work
type Job func(ctx context.Context) error

type CronScheduler struct {
	cron           *cron.Cron
	logger         *zap.Logger
	jobTimeout     time.Duration
	activeJobs     sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewCronScheduler creates a scheduler whose jobs never overlap with
// themselves and are cancelled after jobTimeout.
func NewCronScheduler(logger *zap.Logger, jobTimeout time.Duration) *CronScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))

	return &CronScheduler{
		cron:           cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger)), cron.WithLogger(cronLogger)),
		logger:         logger,
		jobTimeout:     jobTimeout,
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}
}

// AddJob schedules job on a standard five field cron spec
func (s *CronScheduler) AddJob(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, s.createJobWrapper(name, job)); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.logger.Info("Job scheduled", zap.String("job", name), zap.String("spec", spec))
	return nil
}

func (s *CronScheduler) Start() {
	s.cron.Start()
	s.logger.Info("Cron scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// createJobWrapper wraps a job with context, timeout, logging, and panic recovery
func (s *CronScheduler) createJobWrapper(jobName string, job Job) func() {
	return func() {
		s.activeJobs.Add(1)
		defer s.activeJobs.Done()

		ctx, cancel := context.WithTimeout(s.shutdownCtx, s.jobTimeout)
		defer cancel()

		startTime := time.Now()
		s.logger.Info("Starting scheduled job", zap.String("job", jobName))

		defer func() {
			if r := recover(); r != nil {
				metrics.RecordSchedulerJob(jobName, false)
				s.logger.Error("Job panicked", zap.String("job", jobName), zap.Any("panic", r))
			}
		}()

		err := job(ctx)
		metrics.RecordSchedulerJob(jobName, err == nil)

		duration := time.Since(startTime)
		if err != nil {
			s.logger.Error("Job failed", zap.String("job", jobName), zap.Duration("duration", duration), zap.Error(err))
		} else {
			s.logger.Info("Job completed successfully", zap.String("job", jobName), zap.Duration("duration", duration))
		}

		if ctx.Err() == context.DeadlineExceeded {
			s.logger.Warn("Job timed out", zap.String("job", jobName), zap.Duration("timeout", s.jobTimeout))
		}
	}
}

// Stop stops scheduling, cancels running jobs and waits for them to return
func (s *CronScheduler) Stop() {
	s.logger.Info("Stopping cron scheduler...")

	ctx := s.cron.Stop()
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.activeJobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All jobs completed, cron scheduler stopped")
	case <-ctx.Done():
		s.logger.Info("Cron scheduler stopped")
	case <-time.After(time.Minute):
		s.logger.Warn("Timeout waiting for jobs to complete, forcing shutdown")
	}
}

// Status describes the scheduled jobs
func (s *CronScheduler) Status() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
