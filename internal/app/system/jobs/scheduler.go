// internal/app/system/jobs/scheduler.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/crmhub/internal/app/system/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of scheduled work. Spec is a standard five-field cron
// expression evaluated in the scheduler's location.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// DailyAt returns the cron spec for hour:00 every day.
func DailyAt(hour int) string {
	return fmt.Sprintf("0 %d * * *", hour)
}

// Scheduler runs jobs on cron schedules in a fixed location. A job that is
// still running when its next tick arrives is skipped for that tick.
type Scheduler struct {
	c   *cron.Cron
	log *zap.Logger
	m   *metrics.Metrics
}

// NewScheduler creates a stopped scheduler evaluating specs in loc.
func NewScheduler(loc *time.Location, logger *zap.Logger, m *metrics.Metrics) *Scheduler {
	cl := cronLogger{log: logger.Sugar()}
	return &Scheduler{
		c: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: logger,
		m:   m,
	}
}

// Add registers job. It fails on a malformed spec.
func (s *Scheduler) Add(job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	_, err := s.c.AddFunc(job.Spec, func() {
		s.runOnce(job, timeout)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name, err)
	}
	s.log.Info("job scheduled", zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

func (s *Scheduler) runOnce(job Job, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.m.JobRuns.WithLabelValues(job.Name, "error").Inc()
		s.log.Error("job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	s.m.JobRuns.WithLabelValues(job.Name, "ok").Inc()
	s.log.Debug("job finished", zap.String("job", job.Name), zap.Duration("took", time.Since(start)))
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.c.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.c.Entries())))
}

// Stop halts new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	stopped := s.c.Stop()
	select {
	case <-stopped.Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out with a job still running")
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
