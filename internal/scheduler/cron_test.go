package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexivanou/gazetteer/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCronScheduler_AddJob(t *testing.T) {
	s := NewCronScheduler(zap.NewNop(), time.Minute)

	require.NoError(t, s.AddJob("reimport", "0 3 * * *", func(context.Context) error { return nil }))
	assert.Error(t, s.AddJob("broken", "every day", func(context.Context) error { return nil }))

	status := s.Status()
	assert.Equal(t, 1, status["job_count"])
	assert.Equal(t, true, status["running"])
}

func TestCronScheduler_JobWrapper(t *testing.T) {
	s := NewCronScheduler(zap.NewNop(), 50*time.Millisecond)

	t.Run("Success", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.SchedulerJobsTotal.WithLabelValues("ok_job", "success"))
		ran := false
		s.createJobWrapper("ok_job", func(ctx context.Context) error {
			ran = true
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		})()
		assert.True(t, ran)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.SchedulerJobsTotal.WithLabelValues("ok_job", "success")))
	})

	t.Run("Failure", func(t *testing.T) {
		before := testutil.ToFloat64(metrics.SchedulerJobsTotal.WithLabelValues("bad_job", "failure"))
		s.createJobWrapper("bad_job", func(context.Context) error { return errors.New("boom") })()
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.SchedulerJobsTotal.WithLabelValues("bad_job", "failure")))
	})

	t.Run("Panic is recovered", func(t *testing.T) {
		assert.NotPanics(t, s.createJobWrapper("panic_job", func(context.Context) error { panic("boom") }))
	})

	t.Run("Timeout cancels the job context", func(t *testing.T) {
		var jobErr error
		s.createJobWrapper("slow_job", func(ctx context.Context) error {
			<-ctx.Done()
			jobErr = ctx.Err()
			return jobErr
		})()
		assert.ErrorIs(t, jobErr, context.DeadlineExceeded)
	})
}

func TestCronScheduler_StopCancelsRunningJobs(t *testing.T) {
	s := NewCronScheduler(zap.NewNop(), time.Hour)
	started := make(chan struct{})
	finished := make(chan error, 1)

	go s.createJobWrapper("long_job", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		finished <- ctx.Err()
		return ctx.Err()
	})()

	<-started
	s.Start()
	s.Stop()

	select {
	case err := <-finished:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not cancelled")
	}
}
