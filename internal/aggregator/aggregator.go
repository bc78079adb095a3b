// Package aggregator runs extraction passes over a set of resort sources.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/ski-status/internal/cache"
	"github.com/pfrederiksen/ski-status/internal/fetcher"
	"github.com/pfrederiksen/ski-status/internal/logger"
	"github.com/pfrederiksen/ski-status/internal/metrics"
	"github.com/pfrederiksen/ski-status/internal/resort"
	"github.com/pfrederiksen/ski-status/internal/strategy"
	"github.com/pfrederiksen/ski-status/internal/textnorm"
)

const (
	DefaultWorkers           = 4
	DefaultRequestsPerSecond = 2
)

// ErrNotDispatched marks sources skipped because the pass was cancelled
// before their fetch started. Such results are never cached.
var ErrNotDispatched = errors.New("pass cancelled before fetch")

// Fetcher retrieves a page. *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetcher.Result
}

// Options configures an Aggregator
type Options struct {
	Workers           int
	RequestsPerSecond float64 // <= 0 disables pacing
	Metrics           *metrics.Metrics
	Logger            *logger.Logger
	Now               func() time.Time
}

// Aggregator turns sources into extraction results, one per source, through
// the result cache.
type Aggregator struct {
	fetcher  Fetcher
	registry *strategy.Registry
	cache    *cache.Cache
	limiter  *rate.Limiter
	workers  int
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// New creates an Aggregator. A nil registry means every source uses the
// generic rules.
func New(f Fetcher, registry *strategy.Registry, c *cache.Cache, opts Options) *Aggregator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if c == nil {
		c = cache.New(cache.Options{})
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Aggregator{
		fetcher:  f,
		registry: registry,
		cache:    c,
		limiter:  rate.NewLimiter(limit, opts.Workers),
		workers:  opts.Workers,
		metrics:  opts.Metrics,
		log:      opts.Logger,
		now:      opts.Now,
	}
}

// Cache returns the result cache the aggregator reads through.
func (a *Aggregator) Cache() *cache.Cache {
	return a.cache
}

// Run produces one result per source, in input order. A failing source never
// affects the others. Fetches already started when ctx is cancelled run to
// completion and populate the cache; sources not yet started get an uncached
// FetchError result.
func (a *Aggregator) Run(ctx context.Context, sources []resort.Source) []resort.ExtractionResult {
	return a.run(ctx, sources, false)
}

// Refresh is Run with the cache bypassed: every dispatched source is fetched
// again and its cached entry replaced. Sources never dispatched because ctx
// was cancelled still fall back to a fresh cached result when one exists.
func (a *Aggregator) Refresh(ctx context.Context, sources []resort.Source) []resort.ExtractionResult {
	return a.run(ctx, sources, true)
}

func (a *Aggregator) run(ctx context.Context, sources []resort.Source, fresh bool) []resort.ExtractionResult {
	// Keys invalidated so far in this pass; nil when the cache is honoured
	var invalidated *sync.Map
	if fresh {
		invalidated = &sync.Map{}
	}

	passID := uuid.NewString()
	log := a.log.With(logger.Fields{"pass_id": passID})
	start := time.Now()

	log.Info("Starting extraction pass", logger.Fields{
		"resorts": len(sources),
		"workers": a.workers,
		"fresh":   fresh,
	})

	results := make([]resort.ExtractionResult, len(sources))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, src := range sources {
		g.Go(func() error {
			results[i] = a.extract(ctx, src, invalidated)
			log.Debug("Resort processed", logger.Fields{
				"resort_id": src.ID,
				"status":    string(results[i].Status),
				"strategy":  results[i].Strategy,
			})
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	a.metrics.ObservePass(elapsed)

	summary := Summarize(results)
	log.Info("Extraction pass complete", logger.Fields{
		"resorts":     summary.Total,
		"open":        summary.Open,
		"closed":      summary.Closed,
		"unknown":     summary.Unknown,
		"failed":      summary.Failed,
		"duration_ms": elapsed.Milliseconds(),
	})

	return results
}

// Extract returns the result for a single source, from the cache when a
// fresh entry exists.
func (a *Aggregator) Extract(ctx context.Context, src resort.Source) resort.ExtractionResult {
	return a.extract(ctx, src, nil)
}

// extract resolves one source. A non-nil invalidated set drops the cached
// entry for src the first time its key is seen in the pass, so duplicate
// sources still share one fetch.
func (a *Aggregator) extract(ctx context.Context, src resort.Source, invalidated *sync.Map) resort.ExtractionResult {
	key := cache.KeyFor(src)
	if err := ctx.Err(); err != nil {
		if cached, ok := a.cache.Get(key); ok {
			a.metrics.ObserveCache(true)
			return cached
		}
		return resort.FetchFailed(src, a.now(), fmt.Errorf("%w: %v", ErrNotDispatched, err))
	}

	if invalidated != nil {
		if _, seen := invalidated.LoadOrStore(key, struct{}{}); !seen {
			a.cache.Invalidate(key)
		}
	}

	detached := context.WithoutCancel(ctx)
	result, hit := a.cache.GetOrCompute(key, func() resort.ExtractionResult {
		return a.compute(detached, src)
	})
	a.metrics.ObserveCache(hit)
	return result
}

func (a *Aggregator) compute(ctx context.Context, src resort.Source) resort.ExtractionResult {
	if err := a.limiter.Wait(ctx); err != nil {
		a.log.Warn("Rate limiter wait failed", logger.Fields{"resort_id": src.ID, "error": err.Error()})
	}

	fetchedAt := a.now()
	res := a.fetcher.Fetch(ctx, src.URL)

	var result resort.ExtractionResult
	if !res.OK {
		result = resort.FetchFailed(src, fetchedAt, res.Err)
		a.log.Warn("Fetch failed", logger.Fields{
			"resort_id": src.ID,
			"url":       src.URL,
			"error":     result.Error,
		})
	} else {
		page := textnorm.Normalize(res.Body)
		site, _ := a.registry.Resolve(src.ID)
		result = strategy.Extract(page, src, site, fetchedAt)
	}

	a.metrics.ObserveExtraction(string(result.Status))
	return result
}
