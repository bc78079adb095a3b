// Package scheduler refreshes resort results on a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/pfrederiksen/ski-status/internal/logger"
	"github.com/pfrederiksen/ski-status/internal/resort"
)

// Runner runs one extraction pass that bypasses cached results.
// *aggregator.Aggregator satisfies it.
type Runner interface {
	Refresh(ctx context.Context, sources []resort.Source) []resort.ExtractionResult
}

// Scheduler periodically runs passes over the configured sources and keeps
// the latest results.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	sources   []resort.Source
	interval  time.Duration
	timeout   time.Duration
	log       *logger.Logger
	onPass    func([]resort.ExtractionResult)

	mu      sync.RWMutex
	latest  []resort.ExtractionResult
	lastRun time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

// Options configures a Scheduler
type Options struct {
	Interval time.Duration // default 15m
	Timeout  time.Duration // per-pass deadline, default Interval
	Location *time.Location
	Logger   *logger.Logger
	// OnPass, when set, receives the results of every completed pass.
	OnPass func([]resort.ExtractionResult)
}

// New creates a Scheduler.
func New(runner Runner, sources []resort.Source, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = opts.Interval
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	s := gocron.NewScheduler(opts.Location)
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		runner:    runner,
		sources:   sources,
		interval:  opts.Interval,
		timeout:   opts.Timeout,
		log:       opts.Logger,
		onPass:    opts.OnPass,
	}
}

// Start schedules the refresh job, runs it once immediately and returns.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.sources) == 0 {
		return errors.New("scheduler: no resorts configured")
	}

	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(s.refresh)
	if err != nil {
		return err
	}

	s.log.Info("Scheduler started", logger.Fields{
		"interval": s.interval.String(),
		"resorts":  len(s.sources),
	})
	s.scheduler.StartAsync()
	return nil
}

// Stop cancels the running pass, if any, and stops future runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.scheduler.Stop()
}

// Refresh runs a pass now, outside the schedule. Scheduled and on-demand
// passes both re-fetch every resort, so the interval may be shorter than the
// cache TTL.
func (s *Scheduler) Refresh(ctx context.Context) []resort.ExtractionResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := s.runner.Refresh(ctx, s.sources)

	s.mu.Lock()
	s.latest = results
	s.lastRun = time.Now()
	s.mu.Unlock()

	if s.onPass != nil {
		s.onPass(results)
	}
	return results
}

// Latest returns the results of the most recent pass and when it finished.
// The slice is nil before the first pass completes.
func (s *Scheduler) Latest() ([]resort.ExtractionResult, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.lastRun
}

func (s *Scheduler) refresh() {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	s.log.Debug("Scheduled refresh starting", nil)
	s.Refresh(ctx)
}
