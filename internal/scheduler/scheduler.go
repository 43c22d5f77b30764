// Package scheduler triggers the dimension generator and the external batch
// job, either on a fixed interval or on demand.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/star-dimension-etl/internal/domain"
	"github.com/couchcryptid/star-dimension-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrRunInProgress is returned by Trigger while a run is executing.
var ErrRunInProgress = errors.New("run already in progress")

// Options control the schedule and retry policy.
type Options struct {
	// Interval between scheduled runs. Zero disables the schedule; runs then
	// happen only through Trigger.
	Interval   time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Scheduler executes its jobs in order, one run at a time. Each job is
// retried up to Options.Retries times; a job that still fails ends the run
// and the remaining jobs are skipped.
type Scheduler struct {
	jobs    []Job
	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	triggers chan struct{}
	running  atomic.Bool
	started  atomic.Bool
	wg       sync.WaitGroup
}

// New creates a Scheduler. A nil clock uses the real clock.
func New(jobs []Job, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		jobs:     jobs,
		opts:     opts,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		triggers: make(chan struct{}, 1),
	}
}

// CheckReadiness returns nil once the scheduler loop is running.
func (s *Scheduler) CheckReadiness(_ context.Context) error {
	if !s.started.Load() {
		return errors.New("scheduler is not running")
	}
	return nil
}

// Running reports whether a run is currently executing.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Trigger requests a manual run. It does not wait for the run to finish.
// A request made while a run is executing or already pending is rejected.
func (s *Scheduler) Trigger() error {
	if s.running.Load() {
		return ErrRunInProgress
	}
	select {
	case s.triggers <- struct{}{}:
		return nil
	default:
		return ErrRunInProgress
	}
}

// Run blocks until ctx is cancelled, starting a run on every tick and on
// every accepted Trigger. Ticks that fire during a run are dropped. On
// shutdown it waits for the in-flight run to observe cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if s.opts.Interval > 0 {
		ticker := s.clock.NewTicker(s.opts.Interval)
		defer ticker.Stop()
		tick = ticker.Chan()
	}

	s.logger.Info("scheduler started", "interval", s.opts.Interval, "retries", s.opts.Retries, "retry_delay", s.opts.RetryDelay)
	s.started.Store(true)
	s.metrics.SchedulerRunning.Set(1)
	defer func() {
		s.started.Store(false)
		s.metrics.SchedulerRunning.Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", "reason", ctx.Err())
			s.wg.Wait()
			return nil
		case <-tick:
			s.start(ctx, "schedule")
		case <-s.triggers:
			s.start(ctx, "manual")
		}
	}
}

func (s *Scheduler) start(ctx context.Context, reason string) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("skipping run, previous run still in progress", "trigger", reason)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		_ = s.execute(ctx, reason)
	}()
}

// RunOnce executes every job synchronously. It returns ErrRunInProgress when
// another run holds the scheduler.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer s.running.Store(false)
	return s.execute(ctx, "once")
}

func (s *Scheduler) execute(ctx context.Context, reason string) error {
	start := s.clock.Now()
	s.logger.Info("run started", "trigger", reason, "jobs", len(s.jobs))

	for _, job := range s.jobs {
		if err := s.runJob(ctx, job); err != nil {
			s.logger.Error("run failed", "trigger", reason, "job", job.Name(), "error", err)
			return err
		}
	}

	s.logger.Info("run completed", "trigger", reason, "duration", s.clock.Since(start))
	return nil
}

// runJob runs a job, retrying failures after RetryDelay. Input errors are
// deterministic and are not retried.
func (s *Scheduler) runJob(ctx context.Context, job Job) error {
	var err error
	for attempt := 0; attempt <= s.opts.Retries; attempt++ {
		if attempt > 0 {
			s.metrics.JobRuns.WithLabelValues(job.Name(), "retry").Inc()
			s.logger.Warn("retrying job", "job", job.Name(), "attempt", attempt+1, "delay", s.opts.RetryDelay)
			if !sleepWithContext(ctx, s.clock, s.opts.RetryDelay) {
				return errors.Join(err, ctx.Err())
			}
		}

		start := s.clock.Now()
		err = job.Run(ctx)
		s.metrics.JobDuration.WithLabelValues(job.Name()).Observe(s.clock.Since(start).Seconds())
		if err == nil {
			s.metrics.JobRuns.WithLabelValues(job.Name(), "success").Inc()
			return nil
		}

		s.logger.Warn("job attempt failed", "job", job.Name(), "attempt", attempt+1, "error", err)
		if errors.Is(err, domain.ErrInput) || ctx.Err() != nil {
			break
		}
	}

	s.metrics.JobRuns.WithLabelValues(job.Name(), "failure").Inc()
	return err
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
