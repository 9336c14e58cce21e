package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/external/goapi"
	"github.com/nicholaslie90/stck-scanner/internal/external/telegram"
	"github.com/nicholaslie90/stck-scanner/internal/external/tradingview"
	"github.com/nicholaslie90/stck-scanner/internal/metrics"
	"github.com/nicholaslie90/stck-scanner/internal/report"
	"github.com/nicholaslie90/stck-scanner/internal/s1_universe"
	"github.com/nicholaslie90/stck-scanner/internal/s2_signals"
	"github.com/nicholaslie90/stck-scanner/internal/scanner"
	"github.com/nicholaslie90/stck-scanner/internal/selection"
	"github.com/nicholaslie90/stck-scanner/internal/strategyconfig"
	"github.com/nicholaslie90/stck-scanner/internal/window"
	"github.com/nicholaslie90/stck-scanner/pkg/config"
	"github.com/nicholaslie90/stck-scanner/pkg/database"
	"github.com/nicholaslie90/stck-scanner/pkg/httputil"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
	"github.com/nicholaslie90/stck-scanner/pkg/redis"
)

// keyPrefix namespaces every Redis key of this service
const keyPrefix = "stck"

// App holds the wired dependencies shared by the commands
type App struct {
	Config       *config.Config
	Logger       *logger.Logger
	Strategy     *strategyconfig.Config
	StrategyHash string
	Metrics      *metrics.Recorder
	GoAPI        *goapi.Client
	Telegram     *telegram.Client
	Engine       *scanner.Engine

	closers []func()
}

// appOptions tweaks the wiring per command
type appOptions struct {
	workers int // > 0 overrides SCAN_WORKERS
}

// loadConfig reads the environment and applies the global flags
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if strategyPath != "" {
		cfg.Scan.StrategyPath = strategyPath
	}
	return cfg, logger.New(cfg), nil
}

// newApp wires the full scan pipeline
func newApp(ctx context.Context, opts appOptions) (*App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.workers > 0 {
		cfg.Scan.Workers = opts.workers
	}

	// 1. Fail fast without an API key
	if err := cfg.RequireGoAPIKey(); err != nil {
		return nil, err
	}

	app := &App{Config: cfg, Logger: log}

	// 2. Strategy
	strategy, err := strategyconfig.LoadOrDefault(cfg.Scan.StrategyPath)
	if err != nil {
		return nil, err
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return nil, fmt.Errorf("hash strategy: %w", err)
	}
	app.Strategy = strategy
	app.StrategyHash = hash

	log.WithFields(map[string]interface{}{
		"strategy": strategy.Meta.StrategyID,
		"version":  strategy.Meta.Version,
		"hash":     hash[:12],
	}).Info("Strategy loaded")

	cohorts, err := strategy.CohortSet()
	if err != nil {
		return nil, fmt.Errorf("cohorts: %w", err)
	}

	// 3. Metrics
	app.Metrics = metrics.New()

	// 4. Redis (optional cache + shared rate limit)
	rc := app.connectRedis(cfg, log)
	cache := redis.NewCache(rc, keyPrefix)
	limiter := redis.NewRateLimiter(rc, keyPrefix)

	// 5. Upstream clients
	newHTTP := func(limit redis.RateLimitConfig) *httputil.Client {
		c := httputil.New(cfg, log)
		if rc.Enabled() {
			c = c.WithRateLimiter(limiter, limit)
		}
		return c
	}

	throttle := httputil.NewThrottle(cfg.Scan.Throttle)
	app.GoAPI = goapi.NewClient(newHTTP(redis.GoAPIRateLimit).WithThrottle(throttle), cfg.GoAPI.BaseURL, cfg.GoAPI.APIKey, log)
	tv := tradingview.NewClient(newHTTP(redis.TradingViewRateLimit), cfg.TradingView.BaseURL, cfg.TradingView.Market, log)

	maxChunk := strategy.Report.MaxChunk
	if cfg.Telegram.MaxChunk > 0 && cfg.Telegram.MaxChunk < maxChunk {
		maxChunk = cfg.Telegram.MaxChunk
	}
	app.Telegram = telegram.NewClient(newHTTP(redis.TelegramRateLimit), cfg.Telegram.BaseURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, maxChunk, log)

	// 6. Universe
	loc := cfg.Location()
	universe := s1_universe.NewResolver(
		s1_universe.Config{
			Sources:           strategy.Universe.Sources,
			Static:            strategy.Universe.Static,
			MorningCriteria:   strategy.ScreenCriteria(contracts.ModeMorning),
			AfternoonCriteria: strategy.ScreenCriteria(contracts.ModeAfternoon),
		},
		log,
		s1_universe.WithScreen(scanner.NewCachedScreenSource(tv, cache, app.Metrics)),
		s1_universe.WithWatchlists(app.watchlists(ctx, cfg, log)...),
	)

	// 7. Engine
	deps := scanner.Deps{
		Universe:   universe,
		Brokers:    scanner.NewCachedBrokerSource(app.GoAPI, cache, loc, app.Metrics, log),
		Prices:     scanner.NewCachedPriceSource(app.GoAPI, cache, loc, app.Metrics, log),
		Aggregator: s2_signals.NewFlowAggregator(cohorts, log),
		Scorer:     s2_signals.NewScorer(strategy.Scoring, cohorts),
		Enricher:   s2_signals.NewPriceContextEnricher(strategy.PriceContext, log),
		Assembler: selection.NewAssembler(selection.Config{
			MorningTop:          strategy.Selection.MorningTop,
			AfternoonWinners:    strategy.Selection.AfternoonWinners,
			AfternoonLosers:     strategy.Selection.AfternoonLosers,
			RequireAccumulation: strategy.Selection.RequireAccumulation,
			MomentumBonus:       strategy.Selection.MomentumBonus,
		}, log),
		Renderer: report.NewRenderer(report.Config{
			Title:    strategy.Report.Title,
			ShowTags: strategy.Report.ShowTags,
			Brokers:  strategy.BrokerDirectory(),
			Cohorts:  cohorts,
		}),
		Metrics: app.Metrics,
	}
	if app.Telegram.Enabled() {
		deps.Notifier = app.Telegram
	} else {
		log.Warn("Telegram not configured, reports are only printed")
	}

	app.Engine = scanner.New(scanner.Config{
		Window: window.Config{
			UTCOffsetHours:    cfg.Scan.UTCOffsetHours,
			MorningCutoffHour: cfg.Scan.MorningCutoffHour,
			LookbackDays:      cfg.Scan.LookbackDays,
		},
		Workers:          cfg.Scan.Workers,
		MomentumLookback: cfg.Scan.MomentumLookback,
		StrategyHash:     hash,
	}, deps, log)

	return app, nil
}

// connectRedis returns a live client, or a disabled one when Redis is off or unreachable
func (a *App) connectRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		disabled := *cfg
		disabled.Redis.Enabled = false
		rc, _ = redis.New(&disabled)
		return rc
	}

	if rc.Enabled() {
		log.Info("Connected to Redis")
		a.closers = append(a.closers, func() { _ = rc.Close() })
	}
	return rc
}

// watchlists returns the file and database watchlists that are configured
func (a *App) watchlists(ctx context.Context, cfg *config.Config, log *logger.Logger) []contracts.WatchlistSource {
	var sources []contracts.WatchlistSource

	if cfg.Scan.WatchlistPath != "" {
		sources = append(sources, s1_universe.NewFileWatchlist(cfg.Scan.WatchlistPath))
	}

	db, err := database.New(cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		return sources
	case err != nil:
		log.WithError(err).Warn("Database unavailable, skipping watchlist table")
		return sources
	}
	a.closers = append(a.closers, db.Close)

	repo := s1_universe.NewRepository(db.Pool)
	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureSchema(schemaCtx); err != nil {
		log.WithError(err).Warn("Failed to prepare watchlist table, skipping")
		return sources
	}

	log.Info("Connected to database")
	return append(sources, repo)
}

// Close releases connections in reverse order
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
