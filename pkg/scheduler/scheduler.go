// Package scheduler evaluates delivery schedules on a fixed tick and runs the
// fetch, rank, generate and deliver pipeline for every due owner.
//
// Runs of different owners are executed concurrently by a bounded set of workers,
// an owner never has two runs at the same time. The (owner, local day) attempt
// record is the idempotency key of daily delivery, see Pipeline.Run.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/newsdraft/pkg/domain"
)

//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner

// ErrInFlight is returned by RunNow when the owner already has a running pipeline
var ErrInFlight = errors.New("run already in flight")

// Runner makes one delivery attempt for a schedule on the local day
type Runner interface {
	Run(ctx context.Context, sched domain.Schedule, day string) (*domain.DeliveryAttempt, error)
}

// Config holds scheduler configuration
type Config struct {
	TickInterval     time.Duration
	RunTimeout       time.Duration
	MaxWorkers       int
	MaxDailyAttempts int
}

// Scheduler is the lifecycle object of the delivery loop
type Scheduler struct {
	schedules ScheduleStore
	attempts  AttemptStore
	runner    Runner
	metrics   *Collector
	cfg       Config
	now       func() time.Time

	mu       sync.Mutex
	ctx      context.Context // lifecycle context of a started scheduler
	cancel   context.CancelFunc
	running  bool
	inFlight map[string]struct{}
	sem      chan struct{}
	loopWg   sync.WaitGroup
	runsWg   sync.WaitGroup
}

// NewScheduler creates a new scheduler instance
func NewScheduler(schedules ScheduleStore, attempts AttemptStore, runner Runner, cfg Config) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.MaxDailyAttempts <= 0 {
		cfg.MaxDailyAttempts = 5
	}
	return &Scheduler{
		schedules: schedules,
		attempts:  attempts,
		runner:    runner,
		metrics:   NewMetricsCollector(),
		cfg:       cfg,
		now:       time.Now,
		inFlight:  map[string]struct{}{},
		sem:       make(chan struct{}, cfg.MaxWorkers),
	}
}

// Metrics returns the prometheus collector of the scheduler
func (s *Scheduler) Metrics() *Collector { return s.metrics }

// Start begins the tick loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		lgr.Printf("[DEBUG] scheduler already started")
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.ctx = ctx
	s.running = true

	s.loopWg.Add(1)
	go s.loop(ctx)
	lgr.Printf("[INFO] scheduler started with tick %v, %d workers, run timeout %v",
		s.cfg.TickInterval, s.cfg.MaxWorkers, s.cfg.RunTimeout)
}

// Stop stops the loop and waits for in-flight runs. Stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	lgr.Printf("[INFO] stopping scheduler...")
	s.cancel()
	s.running = false
	s.mu.Unlock()

	s.loopWg.Wait()
	s.runsWg.Wait()
	lgr.Printf("[INFO] scheduler stopped")
}

// Running reports whether the loop is started
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.loopWg.Done()

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	// evaluate immediately on start
	s.Tick(ctx, s.now())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick evaluates all active schedules at now and submits runs of the due owners.
// It never waits for runs to finish. Returns the number of submitted runs.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	s.metrics.ticks.Inc()
	schedules, err := s.schedules.ActiveSchedules(ctx)
	if err != nil {
		lgr.Printf("[ERROR] failed to get active schedules: %v", err)
		return 0
	}

	submitted := 0
	for _, sched := range schedules {
		if !IsDue(sched, now) {
			continue
		}
		day, err := LocalDay(sched, now)
		if err != nil {
			continue
		}
		rec, err := s.attempts.GetAttempt(ctx, sched.Owner, day)
		if err != nil {
			lgr.Printf("[WARN] can't get attempts of %s on %s: %v", sched.Owner, day, err)
			continue
		}
		if rec.Closed(s.cfg.MaxDailyAttempts) {
			continue
		}
		if !s.acquire(sched.Owner) {
			lgr.Printf("[DEBUG] run for %s is in flight, skipped", sched.Owner)
			s.metrics.runs.WithLabelValues(resultSkipped).Inc()
			continue
		}

		s.runsWg.Add(1)
		go func() {
			defer s.runsWg.Done()
			defer s.release(sched.Owner)
			_, _ = s.execute(ctx, sched, day)
		}()
		submitted++
	}
	if submitted > 0 {
		lgr.Printf("[INFO] tick at %s submitted %d run(s)", now.UTC().Format(time.RFC3339), submitted)
	}
	return submitted
}

// RunNow runs the pipeline of the owner synchronously, ignoring the time of day.
// Daily cap and the one delivery per day rule still apply. On a started scheduler the run
// is canceled by Stop as well as by ctx, and Stop waits for it.
func (s *Scheduler) RunNow(ctx context.Context, owner string) (*domain.DeliveryAttempt, error) {
	sched, err := s.schedules.GetSchedule(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get schedule of %s: %w", owner, err)
	}
	day, err := LocalDay(*sched, s.now())
	if err != nil {
		return nil, err
	}
	if !s.acquire(owner) {
		return nil, fmt.Errorf("owner %s: %w", owner, ErrInFlight)
	}
	defer s.release(owner)

	runCtx, done := s.join(ctx)
	defer done()
	return s.execute(runCtx, *sched, day)
}

// join ties a manual run to the lifecycle of a started scheduler. The returned func must be called
// when the run is finished.
func (s *Scheduler) join(ctx context.Context) (context.Context, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ctx, func() {}
	}
	s.runsWg.Add(1)
	runCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
		s.runsWg.Done()
	}
}

// RunTimeout returns the wall-clock budget of a single run
func (s *Scheduler) RunTimeout() time.Duration { return s.cfg.RunTimeout }

// Wait blocks until all submitted runs are finished
func (s *Scheduler) Wait() {
	s.runsWg.Wait()
}

// execute runs the pipeline within a worker slot and the run budget. Panics are counted as failures.
func (s *Scheduler) execute(ctx context.Context, sched domain.Schedule, day string) (rec *domain.DeliveryAttempt, err error) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			lgr.Printf("[ERROR] run for %s panicked: %v", sched.Owner, r)
			s.metrics.runs.WithLabelValues(resultPanic).Inc()
			rec, err = nil, fmt.Errorf("run for %s panicked: %v", sched.Owner, r)
		}
		s.metrics.runDuration.Observe(time.Since(start).Seconds())
	}()

	rec, err = s.runner.Run(runCtx, sched, day)
	s.observe(rec, err)
	if err != nil && !errors.Is(err, domain.ErrAttemptsExhausted) {
		lgr.Printf("[WARN] run for %s on %s failed: %v", sched.Owner, day, err)
	}
	return rec, err
}

func (s *Scheduler) observe(rec *domain.DeliveryAttempt, err error) {
	switch {
	case errors.Is(err, domain.ErrAttemptsExhausted):
		s.metrics.runs.WithLabelValues(resultSkipped).Inc()
		return
	case rec == nil:
		s.metrics.runs.WithLabelValues(resultFailed).Inc()
		return
	case rec.Status == domain.AttemptDelivered:
		s.metrics.runs.WithLabelValues(resultDelivered).Inc()
	case rec.Status == domain.AttemptFailed:
		s.metrics.runs.WithLabelValues(resultGaveUp).Inc()
	default:
		s.metrics.runs.WithLabelValues(resultFailed).Inc()
	}
	for _, t := range rec.Succeeded {
		s.metrics.transports.WithLabelValues(t, "ok").Inc()
	}
	for _, t := range rec.Failed {
		s.metrics.transports.WithLabelValues(t, "failed").Inc()
	}
}

// acquire adds the owner to the in-flight set, false if it is there already
func (s *Scheduler) acquire(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[owner]; ok {
		return false
	}
	s.inFlight[owner] = struct{}{}
	s.metrics.inFlight.Inc()
	return true
}

func (s *Scheduler) release(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, owner)
	s.metrics.inFlight.Dec()
}
