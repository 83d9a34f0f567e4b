// ABOUTME: Cron-driven runner for the weekly review and daily export sync.
// ABOUTME: Runs one job at a time; a trigger during a run is skipped and logged.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"

	"github.com/harperreed/lift/internal/log"
	"github.com/harperreed/lift/internal/metrics"
)

// Job outcomes recorded in metrics.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	ErrUnknownJob   = errors.New("unknown job")
	ErrDuplicateJob = errors.New("job already registered")
	ErrStopped      = errors.New("scheduler stopped")
)

// Func is the body of a scheduled job.
type Func func(ctx context.Context) error

type job struct {
	name     string
	spec     string
	schedule cron.Schedule
	fn       Func
}

// Scheduler owns a cron instance and the jobs registered on it.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	jobs map[string]*job

	busy atomic.Bool
	wg   sync.WaitGroup

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	logger zerolog.Logger
}

// New creates a scheduler that evaluates specs in loc. Specs use six fields
// with seconds first, e.g. "0 0 16 * * 0" for Sunday 16:00.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.NewWithLocation(loc),
		loc:    loc,
		jobs:   make(map[string]*job),
		ctx:    ctx,
		cancel: cancel,
		logger: log.WithComponent("scheduler"),
	}
}

// Add registers fn under name on the given cron spec.
func (s *Scheduler) Add(name, spec string, fn Func) error {
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateJob)
	}
	sched, err := cron.Parse(spec)
	if err != nil {
		return fmt.Errorf("job %s: parse %q: %w", name, spec, err)
	}
	j := &job{name: name, spec: spec, schedule: sched, fn: fn}
	s.jobs[name] = j
	s.cron.Schedule(sched, cron.FuncJob(func() {
		if !s.begin() {
			return
		}
		defer s.wg.Done()
		s.run(j)
	}))
	s.logger.Info().Str("job", name).Str("spec", spec).Msg("job registered")
	return nil
}

// Start begins firing jobs. ctx cancellation stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	now := time.Now().In(s.loc)
	for name, j := range s.jobs {
		s.logger.Info().Str("job", name).Time("next", j.schedule.Next(now)).Msg("job scheduled")
	}
	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.ctx.Done():
		}
	}()
}

// Stop halts the cron loop, cancels running jobs and waits for them to
// return. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	s.cron.Stop()
	s.cancel()
	s.wg.Wait()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow runs a job immediately, subject to the same one-at-a-time rule.
// It reports whether the job ran.
func (s *Scheduler) RunNow(name string) (bool, error) {
	j, ok := s.jobs[name]
	if !ok {
		return false, fmt.Errorf("%s: %w", name, ErrUnknownJob)
	}
	if !s.begin() {
		return false, fmt.Errorf("%s: %w", name, ErrStopped)
	}
	defer s.wg.Done()
	return s.run(j)
}

// begin counts a run in the wait group unless Stop has already been called.
// Stop holds mu while waiting, so no run can start during the wait.
func (s *Scheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.wg.Add(1)
	return true
}

// Next returns when the named job fires next after t.
func (s *Scheduler) Next(name string, t time.Time) (time.Time, error) {
	j, ok := s.jobs[name]
	if !ok {
		return time.Time{}, fmt.Errorf("%s: %w", name, ErrUnknownJob)
	}
	return j.schedule.Next(t.In(s.loc)), nil
}

func (s *Scheduler) run(j *job) (bool, error) {
	logger := s.logger.With().Str("job", j.name).Logger()
	if !s.busy.CompareAndSwap(false, true) {
		logger.Warn().Msg("previous run still in progress, skipping")
		metrics.JobRunsTotal.WithLabelValues(j.name, OutcomeSkipped).Inc()
		return false, nil
	}
	defer s.busy.Store(false)

	start := time.Now()
	err := s.safeCall(j)
	if err != nil {
		logger.Error().Err(err).Dur("took", time.Since(start)).Msg("job failed")
		metrics.JobRunsTotal.WithLabelValues(j.name, OutcomeFailed).Inc()
		return true, err
	}
	logger.Info().Dur("took", time.Since(start)).Msg("job finished")
	metrics.JobRunsTotal.WithLabelValues(j.name, OutcomeOK).Inc()
	return true, nil
}

func (s *Scheduler) safeCall(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.name, r)
		}
	}()
	return j.fn(s.ctx)
}
