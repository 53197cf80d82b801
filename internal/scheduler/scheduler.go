package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"

	"github.com/angelmondragon/crewtext-backend/pkg/config"
	"github.com/angelmondragon/crewtext-backend/pkg/logger"
	"github.com/angelmondragon/crewtext-backend/pkg/metrics"
)

const defaultInterval = 15 * time.Minute

var (
	// ErrCycleInProgress is returned by RunNow while another cycle executes.
	ErrCycleInProgress = errors.New("reminder cycle already in progress")
	// ErrLockHeld means another worker instance owns the cycle lock.
	ErrLockHeld = errors.New("reminder cycle running on another instance")
)

// Config controls the interval loop. MaxRetries is the number of attempts a
// cycle gets before it is recorded as failed.
type Config struct {
	Enabled    bool
	Interval   time.Duration
	MaxRetries int
	RetryDelay time.Duration
	RunOnStart bool
}

// ConfigFrom converts the env-loaded scheduler settings.
func ConfigFrom(cfg config.SchedulerConfig) Config {
	return Config{
		Enabled:    cfg.Enabled,
		Interval:   time.Duration(cfg.IntervalMinutes) * time.Minute,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: time.Duration(cfg.RetryDelayMinutes) * time.Minute,
		RunOnStart: cfg.RunOnStart,
	}
}

func (c Config) normalized() Config {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.MaxRetries < 1 {
		c.MaxRetries = 1
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	return c
}

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	LastRunTime     *time.Time `json:"last_run_time"`
	NextRunTime     *time.Time `json:"next_run_time"`
	TotalRuns       int64      `json:"total_runs"`
	SuccessfulRuns  int64      `json:"successful_runs"`
	FailedRuns      int64      `json:"failed_runs"`
	IsRunning       bool       `json:"is_running"`
	IsScheduled     bool       `json:"is_scheduled"`
	Enabled         bool       `json:"enabled"`
	IntervalMinutes float64    `json:"interval_minutes"`
	LastError       string     `json:"last_error,omitempty"`
}

// Params configure the scheduler.
type Params struct {
	Logger  *logger.Logger
	Job     Job
	Lock    Lock
	Metrics *metrics.SchedulerMetrics
	Config  Config
	Now     func() time.Time
}

// Scheduler runs a Job on a fixed interval with bounded retries. At most one
// cycle executes at a time per process; interval ticks that land on a running
// cycle are dropped.
type Scheduler struct {
	logg    *logger.Logger
	job     Job
	lock    Lock
	metrics *metrics.SchedulerMetrics
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	cfg     Config
	cron    *cron.Cron
	entry   cron.EntryID
	baseCtx context.Context
	pending sync.WaitGroup
	stopped []context.Context

	inFlight atomic.Bool

	statsMu sync.Mutex
	lastRun *time.Time
	total   int64
	success int64
	failed  int64
	lastErr string
}

// New builds a scheduler in the stopped state.
func New(params Params) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Job == nil {
		return nil, fmt.Errorf("job required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		logg:    params.Logger,
		job:     params.Job,
		lock:    params.Lock,
		metrics: params.Metrics,
		now:     now,
		sleep:   sleepCtx,
		cfg:     params.Config.normalized(),
	}, nil
}

// Start schedules the interval entry. Calling Start on a scheduled instance
// is a no-op, as is starting a disabled one.
func (s *Scheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}
	if !s.cfg.Enabled {
		s.logg.Info(ctx, "scheduler disabled; not starting")
		return nil
	}
	return s.startLocked(ctx, s.cfg.RunOnStart)
}

func (s *Scheduler) startLocked(ctx context.Context, runImmediately bool) error {
	cl := cronLogger{logg: s.logg}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	spec := "@every " + s.cfg.Interval.String()
	entry, err := c.AddFunc(spec, func() { s.tick(ctx) })
	if err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	s.cron = c
	s.entry = entry
	s.baseCtx = ctx
	c.Start()

	ctx = s.logg.WithFields(ctx, map[string]any{
		"interval":    s.cfg.Interval.String(),
		"max_retries": s.cfg.MaxRetries,
		"retry_delay": s.cfg.RetryDelay.String(),
	})
	s.logg.Info(ctx, "scheduler started")

	if runImmediately {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			s.tick(s.baseCtx)
		}()
	}
	return nil
}

// Stop removes the interval entry. A cycle already executing keeps running to
// completion; use Wait to block on it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.cron == nil {
		return
	}
	s.stopped = append(pruneDone(s.stopped), s.cron.Stop())
	s.cron = nil
	s.entry = 0
	s.logg.Info(context.Background(), "scheduler stopped")
}

// pruneDone drops stop contexts whose cycles have already drained.
func pruneDone(stopped []context.Context) []context.Context {
	live := stopped[:0]
	for _, c := range stopped {
		if c.Err() == nil {
			live = append(live, c)
		}
	}
	clear(stopped[len(live):])
	return live
}

// Wait blocks until every cycle started by a stopped schedule has returned or
// ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	stopped := append([]context.Context(nil), s.stopped...)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		for _, c := range stopped {
			<-c.Done()
		}
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow executes one cycle synchronously, outside the interval.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.runCycle(ctx, "manual")
}

// UpdateConfig stops the schedule, applies cfg, and restarts when the
// schedule was active and cfg keeps it enabled.
func (s *Scheduler) UpdateConfig(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasScheduled := s.cron != nil
	base := s.baseCtx
	s.stopLocked()
	s.cfg = cfg.normalized()

	if base == nil {
		base = context.Background()
	}
	s.logg.Info(s.logg.WithFields(base, map[string]any{
		"enabled":  s.cfg.Enabled,
		"interval": s.cfg.Interval.String(),
	}), "scheduler config updated")

	if wasScheduled && s.cfg.Enabled {
		return s.startLocked(base, false)
	}
	return nil
}

// Config returns the active configuration.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Stats reports run counters and the next scheduled tick.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	cfg := s.cfg
	var next *time.Time
	if s.cron != nil {
		if n := s.cron.Entry(s.entry).Next; !n.IsZero() {
			next = &n
		}
	}
	scheduled := s.cron != nil
	s.mu.Unlock()

	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return Stats{
		LastRunTime:     s.lastRun,
		NextRunTime:     next,
		TotalRuns:       s.total,
		SuccessfulRuns:  s.success,
		FailedRuns:      s.failed,
		IsRunning:       s.inFlight.Load(),
		IsScheduled:     scheduled,
		Enabled:         cfg.Enabled,
		IntervalMinutes: cfg.Interval.Minutes(),
		LastError:       s.lastErr,
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.runCycle(ctx, "interval"); errors.Is(err, ErrCycleInProgress) {
		s.logg.Info(ctx, "previous reminder cycle still running; tick skipped")
	}
}

func (s *Scheduler) runCycle(ctx context.Context, trigger string) error {
	name := s.job.Name()
	if !s.inFlight.CompareAndSwap(false, true) {
		s.metrics.IncSkipped(name, "in_flight")
		return ErrCycleInProgress
	}
	defer s.inFlight.Store(false)

	ctx = s.logg.WithFields(ctx, map[string]any{
		"job":     name,
		"trigger": trigger,
		"event":   "scheduler.cycle",
	})

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			s.metrics.IncSkipped(name, "lock_error")
			s.logg.Error(ctx, "failed to acquire scheduler lock", err)
			return fmt.Errorf("lock acquire: %w", err)
		}
		if !acquired {
			s.metrics.IncSkipped(name, "lock_held")
			s.logg.Info(ctx, "another worker holds the scheduler lock; skipping cycle")
			return ErrLockHeld
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logg.Error(ctx, "failed to release scheduler lock", err)
			}
		}()
	}

	cfg := s.Config()
	start := s.now()
	s.recordStart(start)
	s.logg.Info(ctx, "reminder cycle starting")

	var errs error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		attemptCtx := s.logg.WithField(ctx, "attempt", attempt)
		err := s.job.Run(attemptCtx)
		if err == nil {
			duration := s.now().Sub(start)
			s.recordResult(nil)
			s.metrics.ObserveDuration(name, duration)
			s.metrics.IncSuccess(name)
			s.logg.Info(s.logg.WithField(attemptCtx, "duration_ms", duration.Milliseconds()), "reminder cycle complete")
			return nil
		}
		errs = multierr.Append(errs, fmt.Errorf("attempt %d: %w", attempt, err))
		if attempt == cfg.MaxRetries {
			break
		}
		s.logg.Error(s.logg.WithField(attemptCtx, "retry_delay", cfg.RetryDelay.String()), "reminder cycle attempt failed; retrying", err)
		if err := s.sleep(ctx, cfg.RetryDelay); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
	}

	duration := s.now().Sub(start)
	s.recordResult(errs)
	s.metrics.ObserveDuration(name, duration)
	s.metrics.IncFailure(name)
	s.logg.Error(s.logg.WithField(ctx, "duration_ms", duration.Milliseconds()), "reminder cycle failed", errs)
	return errs
}

func (s *Scheduler) recordStart(at time.Time) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.total++
	s.lastRun = &at
}

func (s *Scheduler) recordResult(err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	if err != nil {
		s.failed++
		s.lastErr = err.Error()
		return
	}
	s.success++
	s.lastErr = ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
