package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/ski-status/internal/aggregator"
	"github.com/pfrederiksen/ski-status/internal/cache"
	"github.com/pfrederiksen/ski-status/internal/config"
	"github.com/pfrederiksen/ski-status/internal/fetcher"
	"github.com/pfrederiksen/ski-status/internal/filter"
	"github.com/pfrederiksen/ski-status/internal/logger"
	"github.com/pfrederiksen/ski-status/internal/metrics"
	"github.com/pfrederiksen/ski-status/internal/resort"
	"github.com/pfrederiksen/ski-status/internal/scheduler"
	"github.com/pfrederiksen/ski-status/internal/server"
)

const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitFetchErrors = 2
)

var (
	flagConfig    string
	flagFormat    string
	flagSort      string
	flagOpenOnly  bool
	flagMinSnow   int
	flagStatus    string
	flagResorts   string
	flagVerbose   bool
	flagLogLevel  string
	flagLogFormat string
	flagInterval  time.Duration
	flagAddr      string
	flagChanges   bool
)

// exitCodeError carries a non-zero exit code without an error message
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ski-status",
		Short: "Report snow depth and operating status of ski resorts",
		Long: `A CLI tool that reads ski resort websites and reports snow depth,
operating status and open course counts for each resort.

Exit codes: 0 success, 1 error, 2 at least one resort page could not be fetched.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runCheck,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Resort registry YAML file (default: built-in list, env: SKI_REGISTRY_FILE)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error (env: LOG_LEVEL)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: text or json (env: LOG_FORMAT)")
	pf.BoolVar(&flagVerbose, "verbose", false, "Show strategy, excerpt and errors for each resort")

	addOutputFlags(cmd)

	check := &cobra.Command{
		Use:   "check",
		Short: "Run one extraction pass and print the results",
		RunE:  runCheck,
	}
	addOutputFlags(check)

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Run extraction passes on an interval and print each one",
		RunE:  runWatch,
	}
	addOutputFlags(watch)
	watch.Flags().DurationVar(&flagInterval, "interval", 0, "Time between passes (env: SKI_REFRESH_INTERVAL)")
	watch.Flags().BoolVar(&flagChanges, "changes-only", false, "After the first pass, show only resorts whose values changed")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest results as JSON over HTTP",
		RunE:  runServe,
	}
	serve.Flags().StringVar(&flagAddr, "addr", "", "Listen address (env: SKI_SERVER_ADDR)")
	serve.Flags().DurationVar(&flagInterval, "interval", 0, "Time between passes (env: SKI_REFRESH_INTERVAL)")

	cmd.AddCommand(check, watch, serve)
	return cmd
}

func addOutputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&flagFormat, "format", "text", "Output format: text, json or table")
	f.StringVar(&flagSort, "sort", "input", "Sort order: input, name, snow or status")
	f.BoolVar(&flagOpenOnly, "open-only", false, "Show only resorts where skiing is possible")
	f.IntVar(&flagMinSnow, "min-snow", 0, "Show only resorts with at least this much snow (cm)")
	f.StringVar(&flagStatus, "status", "", "Show only these statuses (comma-separated, 'open' for all open statuses)")
	f.StringVar(&flagResorts, "resorts", "", "Check only these resort IDs (comma-separated)")
}

// engine holds everything a pass needs
type engine struct {
	cfg        *config.Config
	log        *logger.Logger
	metrics    *metrics.Metrics
	aggregator *aggregator.Aggregator
	sources    []resort.Source
}

func newEngine() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagConfig != "" {
		cfg.RegistryFile = flagConfig
	}
	if flagLogLevel != "" {
		if cfg.LogLevel, err = logger.ParseLevel(flagLogLevel); err != nil {
			return nil, err
		}
	}
	if flagLogFormat != "" {
		if cfg.LogFormat, err = logger.ParseFormat(flagLogFormat); err != nil {
			return nil, err
		}
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	logger.SetDefault(log)

	reg, err := config.LoadRegistry(cfg.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("loading resort registry: %w", err)
	}
	sites, err := reg.Strategies()
	if err != nil {
		return nil, fmt.Errorf("building strategies: %w", err)
	}

	sources, err := selectSources(reg.Sources(), filter.ParseList(flagResorts))
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	f := fetcher.New(fetcher.Options{
		Timeout:          cfg.FetchTimeout,
		Retries:          cfg.FetchRetries,
		AcceptLanguage:   cfg.AcceptLanguage,
		CloudflareBypass: cfg.CloudflareBypass,
		BreakerFailures:  cfg.BreakerFailures,
		Metrics:          m,
		Logger:           log,
	})
	c := cache.New(cache.Options{
		TTL:        cfg.CacheTTL,
		MaxEntries: cfg.CacheMaxEntries,
	})
	agg := aggregator.New(f, sites, c, aggregator.Options{
		Workers:           cfg.Workers,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Metrics:           m,
		Logger:            log,
	})

	log.Debug("Engine ready", logger.Fields{
		"resorts":    len(sources),
		"strategies": sites.Len(),
		"cache_ttl":  cfg.CacheTTL.String(),
		"workers":    cfg.Workers,
	})

	return &engine{
		cfg:        cfg,
		log:        log,
		metrics:    m,
		aggregator: agg,
		sources:    sources,
	}, nil
}

// selectSources returns the sources named in ids, in the order given. Empty
// ids keeps all.
func selectSources(all []resort.Source, ids []string) ([]resort.Source, error) {
	if len(ids) == 0 {
		return all, nil
	}
	var selected []resort.Source
	for _, id := range ids {
		found := false
		for _, src := range all {
			if strings.EqualFold(src.ID, id) {
				selected = append(selected, src)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown resort: %s", id)
		}
	}
	return selected, nil
}

// buildFilter turns the output flags into a result filter.
func buildFilter() (*filter.Filter, error) {
	if flagMinSnow < 0 {
		return nil, fmt.Errorf("--min-snow must not be negative")
	}
	statuses, err := filter.ParseStatuses(flagStatus)
	if err != nil {
		return nil, err
	}
	f := filter.NewFilter()
	f.OpenOnly = flagOpenOnly
	f.MinSnowDepth = flagMinSnow
	f.Statuses = statuses
	return f, nil
}

func parseOutputFlags() (OutputFormat, SortOrder, error) {
	format := OutputFormat(strings.ToLower(flagFormat))
	if !format.Valid() {
		return "", "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'table')", flagFormat)
	}
	order := SortOrder(strings.ToLower(flagSort))
	if !order.Valid() {
		return "", "", fmt.Errorf("invalid sort: %s (must be 'input', 'name', 'snow' or 'status')", flagSort)
	}
	return format, order, nil
}

// report filters, sorts and writes one pass.
func report(w io.Writer, results []resort.ExtractionResult, f *filter.Filter, format OutputFormat, order SortOrder, loc *time.Location) error {
	shown := f.Apply(results)
	shown = append([]resort.ExtractionResult(nil), shown...)
	sortResults(shown, order)

	out := &OutputResult{
		CheckedAt: time.Now().In(loc),
		Filter:    f.String(),
		Summary:   aggregator.Summarize(results),
		Resorts:   shown,
	}
	return WriteOutput(w, out, format, flagVerbose, loc)
}

// runCheck is the main command logic
func runCheck(cmd *cobra.Command, args []string) error {
	format, order, err := parseOutputFlags()
	if err != nil {
		return err
	}
	f, err := buildFilter()
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	results := eng.aggregator.Run(ctx, eng.sources)

	if err := report(cmd.OutOrStdout(), results, f, format, order, eng.cfg.Location); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if aggregator.Summarize(results).HasFailures() {
		return exitCodeError{code: ExitFetchErrors}
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, order, err := parseOutputFlags()
	if err != nil {
		return err
	}
	f, err := buildFilter()
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}
	interval := eng.cfg.RefreshInterval
	if flagInterval > 0 {
		interval = flagInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	var previous []resort.ExtractionResult
	sched := scheduler.New(eng.aggregator, eng.sources, scheduler.Options{
		Interval: interval,
		Location: eng.cfg.Location,
		Logger:   eng.log,
		OnPass: func(results []resort.ExtractionResult) {
			shown := f
			if previous != nil {
				changes := resort.Diff(previous, results, time.Now())
				logChanges(eng.log, changes)
				if flagChanges {
					if len(changes) == 0 {
						previous = results
						return
					}
					shown = f.Clone()
					shown.IDs = changedIDs(changes)
				}
			}
			previous = results

			if err := report(w, results, shown, format, order, eng.cfg.Location); err != nil {
				eng.log.Error("Failed to write results", nil, err)
			}
		},
	})
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	<-ctx.Done()
	eng.log.Info("Shutting down", nil)
	return nil
}

func logChanges(log *logger.Logger, changes []resort.Change) {
	for _, c := range changes {
		log.Info("Resort changed", logger.Fields{
			"resort_id": c.ResortID,
			"change":    c.ChangeType,
			"old":       c.OldValue,
			"new":       c.NewValue,
		})
	}
}

// changedIDs lists each changed resort once, in order of first change.
func changedIDs(changes []resort.Change) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range changes {
		if !seen[c.ResortID] {
			seen[c.ResortID] = true
			ids = append(ids, c.ResortID)
		}
	}
	return ids
}

func runServe(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	addr := eng.cfg.ServerAddr
	if flagAddr != "" {
		addr = flagAddr
	}
	interval := eng.cfg.RefreshInterval
	if flagInterval > 0 {
		interval = flagInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(eng.aggregator, eng.sources, scheduler.Options{
		Interval: interval,
		Location: eng.cfg.Location,
		Logger:   eng.log,
	})
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	app := server.New(sched, server.Options{
		Metrics:  eng.metrics,
		Logger:   eng.log,
		Location: eng.cfg.Location,
	})

	errCh := make(chan error, 1)
	go func() {
		eng.log.Info("HTTP server listening", logger.Fields{"addr": addr})
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		eng.log.Error("Error during shutdown", nil, err)
	}
	return nil
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

func run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitError
}
