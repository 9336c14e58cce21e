package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nicholaslie90/stck-scanner/internal/breaker"
	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/metrics"
	"github.com/nicholaslie90/stck-scanner/internal/report"
	"github.com/nicholaslie90/stck-scanner/internal/s1_universe"
	"github.com/nicholaslie90/stck-scanner/internal/s2_signals"
	"github.com/nicholaslie90/stck-scanner/internal/selection"
	"github.com/nicholaslie90/stck-scanner/internal/window"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// ErrRunInProgress is returned when a run is requested while another is active
var ErrRunInProgress = errors.New("scan already in progress")

// UniverseResolver resolves the tickers of a run
type UniverseResolver interface {
	Resolve(ctx context.Context, mode contracts.Mode) (*contracts.Universe, error)
}

// Config holds the engine settings
type Config struct {
	Window           window.Config
	Workers          int  // 1 = sequential
	MomentumLookback bool // fetch lookback broker flow for the rank bonus
	StrategyHash     string
}

// Deps are the collaborators of the engine
type Deps struct {
	Universe   UniverseResolver
	Brokers    contracts.BrokerFlowSource
	Prices     contracts.PriceHistorySource
	Aggregator *s2_signals.FlowAggregator
	Scorer     *s2_signals.Scorer
	Enricher   *s2_signals.PriceContextEnricher
	Assembler  *selection.Assembler
	Renderer   *report.Renderer
	Notifier   contracts.Notifier // nil = never notify
	Metrics    *metrics.Recorder  // nil = no metrics
}

// RunOptions overrides the clock-driven defaults of one run
type RunOptions struct {
	Now     time.Time      // zero = wall clock
	Mode    contracts.Mode // empty = by clock
	Date    time.Time      // zero = by clock
	Tickers []string       // non-empty replaces the universe sources
	DryRun  bool           // render without notifying
}

// RunResult is the outcome of one run
type RunResult struct {
	RunID    string                  `json:"run_id"`
	Report   *contracts.Report       `json:"report"`
	Universe *contracts.Universe     `json:"universe,omitempty"`
	Message  string                  `json:"message"`
	Notified bool                    `json:"notified"`
	Stages   []contracts.StageResult `json:"stages"`
	Duration time.Duration           `json:"duration"`
}

// Engine runs the S0 → S4 pipeline
// ⭐ SSOT: the data flow between stages lives here only
type Engine struct {
	config Config
	deps   Deps
	logger *logger.Logger
	now    func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	latest  *RunResult
}

// New creates a new engine
func New(config Config, deps Deps, log *logger.Logger) *Engine {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Engine{
		config: config,
		deps:   deps,
		logger: log,
		now:    time.Now,
	}
}

// Latest returns the last completed run, nil before the first run
func (e *Engine) Latest() *RunResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.latest
}

// Running reports whether a run is active
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run executes one scan. Per-ticker failures never fail the run.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer e.running.Store(false)

	start := e.now()
	now := opts.Now
	if now.IsZero() {
		now = start
	}

	result := &RunResult{RunID: uuid.NewString()}

	// S0: window
	stageStart := time.Now()
	tw := window.NewResolver(e.config.Window, e.windowOptions(opts)...).Resolve(now)
	log := e.logger.WithRun(result.RunID, string(tw.Mode))
	result.Stages = append(result.Stages, stageResult(contracts.StageWindow, stageStart, 0, 1, nil))

	log.WithFields(map[string]interface{}{
		"target_date":   window.FormatDate(tw.TargetDate),
		"lookback_from": window.FormatDate(tw.LookbackStart),
		"workers":       e.config.Workers,
		"strategy_hash": e.config.StrategyHash,
		"dry_run":       opts.DryRun,
	}).Info("Scan started")

	// S1: universe
	stageStart = time.Now()
	universe, err := e.resolveUniverse(ctx, tw.Mode, opts.Tickers)
	if err != nil && !errors.Is(err, contracts.ErrEmptyUniverse) {
		result.Stages = append(result.Stages, stageResult(contracts.StageUniverse, stageStart, 0, 0, err))
		return nil, fmt.Errorf("resolve universe: %w", err)
	}
	if errors.Is(err, contracts.ErrEmptyUniverse) {
		log.Warn("Universe is empty, sending no-data report")
		result.Stages = append(result.Stages, stageResult(contracts.StageUniverse, stageStart, 0, 0, err))

		rep := &contracts.Report{
			RunID:       result.RunID,
			Window:      tw,
			Status:      contracts.StatusEmptyUniverse,
			GeneratedAt: e.now(),
		}
		return e.finish(ctx, log, result, rep, opts, start)
	}
	universe.Date = tw.TargetDate
	result.Universe = universe
	result.Stages = append(result.Stages, stageResult(contracts.StageUniverse, stageStart, 0, universe.Count(), nil))

	// S2: signals
	stageStart = time.Now()
	var alerter breaker.Alerter
	if !opts.DryRun && e.deps.Notifier != nil {
		alerter = e.deps.Notifier
	}
	brk := breaker.New(alerter, log)

	results, scanned := e.scanAll(ctx, log, tw, universe.Tickers, brk)
	if brk.Tripped() {
		e.deps.Metrics.RecordBreakerTrip()
	}
	if err := ctx.Err(); err != nil {
		result.Stages = append(result.Stages, stageResult(contracts.StageSignals, stageStart, scanned, len(results), err))
		return nil, err
	}
	result.Stages = append(result.Stages, stageResult(contracts.StageSignals, stageStart, universe.Count(), len(results), brk.Reason()))

	// S3: ranking and report
	stageStart = time.Now()
	rep := e.deps.Assembler.Assemble(tw, results)
	rep.RunID = result.RunID
	rep.Unauthorized = brk.Tripped()
	rep.Scanned = scanned
	rep.Skipped = scanned - len(results)
	result.Stages = append(result.Stages, stageResult(contracts.StageReport, stageStart, len(results), len(rep.Plan)+len(rep.Winners)+len(rep.Losers), nil))

	return e.finish(ctx, log, result, rep, opts, start)
}

// finish renders, notifies (S4) and records the run
func (e *Engine) finish(ctx context.Context, log *logger.Logger, result *RunResult, rep *contracts.Report, opts RunOptions, start time.Time) (*RunResult, error) {
	stageStart := time.Now()
	result.Report = rep
	result.Message = e.deps.Renderer.Render(rep)

	var notifyErr error
	if !opts.DryRun && e.deps.Notifier != nil {
		if notifyErr = e.deps.Notifier.Send(ctx, result.Message); notifyErr != nil {
			log.WithError(notifyErr).Error("Failed to send report")
		} else {
			result.Notified = true
		}
	}
	result.Stages = append(result.Stages, stageResult(contracts.StageNotify, stageStart, 1, boolToInt(result.Notified), notifyErr))

	result.Duration = e.now().Sub(start)
	e.deps.Metrics.RecordRun(string(rep.Window.Mode), string(rep.Status), result.Duration.Seconds(), e.now().Unix())

	e.mu.Lock()
	e.latest = result
	e.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"status":       rep.Status,
		"scanned":      rep.Scanned,
		"included":     rep.Included,
		"skipped":      rep.Skipped,
		"unauthorized": rep.Unauthorized,
		"notified":     result.Notified,
		"duration":     result.Duration,
	}).Info("Scan finished")

	if notifyErr != nil {
		return result, fmt.Errorf("notify: %w", notifyErr)
	}
	return result, nil
}

func (e *Engine) windowOptions(opts RunOptions) []window.Option {
	var wopts []window.Option
	if opts.Mode != "" {
		wopts = append(wopts, window.WithMode(opts.Mode))
	}
	if !opts.Date.IsZero() {
		wopts = append(wopts, window.WithTargetDate(opts.Date))
	}
	return wopts
}

func (e *Engine) resolveUniverse(ctx context.Context, mode contracts.Mode, tickers []string) (*contracts.Universe, error) {
	if len(tickers) > 0 {
		return s1_universe.Manual(mode, tickers)
	}
	if e.deps.Universe == nil {
		return nil, contracts.ErrEmptyUniverse
	}
	return e.deps.Universe.Resolve(ctx, mode)
}

func stageResult(stage contracts.Stage, start time.Time, in, out int, err error) contracts.StageResult {
	r := contracts.StageResult{
		Stage:       stage,
		Success:     err == nil,
		InputCount:  in,
		OutputCount: out,
		Duration:    time.Since(start).Milliseconds(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
