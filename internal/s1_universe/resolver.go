package s1_universe

import (
	"context"
	"fmt"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Config holds the universe sources
type Config struct {
	Sources           []string // static, watchlist, screen (ordered)
	Static            []string // curated list, also the screen fallback
	MorningCriteria   contracts.ScreenCriteria
	AfternoonCriteria contracts.ScreenCriteria
}

// Resolver builds the scan universe from the configured sources
// ⭐ SSOT: S1 universe resolution
type Resolver struct {
	config     Config
	screen     contracts.ScreenSource
	watchlists []contracts.WatchlistSource
	logger     *logger.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithScreen sets the market screener
func WithScreen(src contracts.ScreenSource) Option {
	return func(r *Resolver) {
		r.screen = src
	}
}

// WithWatchlists adds watchlist sources (file, database)
func WithWatchlists(srcs ...contracts.WatchlistSource) Option {
	return func(r *Resolver) {
		r.watchlists = append(r.watchlists, srcs...)
	}
}

// NewResolver creates a new universe resolver
func NewResolver(config Config, log *logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		config: config,
		logger: log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve combines the sources by ordered set union
// Screen failure substitutes the static list. An empty result is ErrEmptyUniverse.
func (r *Resolver) Resolve(ctx context.Context, mode contracts.Mode) (*contracts.Universe, error) {
	set := newTickerSet()
	universe := &contracts.Universe{
		Mode:         mode,
		SourceCounts: make(map[string]int),
	}

	for _, source := range r.config.Sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch source {
		case contracts.SourceStatic:
			universe.SourceCounts[contracts.SourceStatic] += set.add(r.config.Static)

		case contracts.SourceWatchlist:
			for _, wl := range r.watchlists {
				tickers, err := wl.Load(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					r.logger.WithError(err).Warn("Watchlist load failed, skipping")
					continue
				}
				universe.SourceCounts[contracts.SourceWatchlist] += set.add(tickers)
			}

		case contracts.SourceScreen:
			tickers, err := r.runScreen(ctx, mode)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if err != nil || len(tickers) == 0 {
				r.logger.WithFields(map[string]interface{}{
					"error":    errString(err),
					"fallback": len(r.config.Static),
				}).Warn("Screen unavailable, using static list")
				universe.FallbackUsed = true
				universe.SourceCounts[contracts.SourceStatic] += set.add(r.config.Static)
				continue
			}
			universe.SourceCounts[contracts.SourceScreen] += set.add(tickers)

		default:
			return nil, fmt.Errorf("unknown universe source: %s", source)
		}
	}

	universe.Tickers = set.list()
	if len(universe.Tickers) == 0 {
		return nil, contracts.ErrEmptyUniverse
	}

	r.logger.WithFields(map[string]interface{}{
		"mode":     mode,
		"count":    universe.Count(),
		"sources":  universe.SourceCounts,
		"fallback": universe.FallbackUsed,
	}).Info("Universe resolved")

	return universe, nil
}

// Manual builds a universe from an explicit ticker list (CLI override)
func Manual(mode contracts.Mode, tickers []string) (*contracts.Universe, error) {
	set := newTickerSet()
	n := set.add(tickers)
	if n == 0 {
		return nil, contracts.ErrEmptyUniverse
	}

	return &contracts.Universe{
		Mode:         mode,
		Tickers:      set.list(),
		SourceCounts: map[string]int{"manual": n},
	}, nil
}

func (r *Resolver) runScreen(ctx context.Context, mode contracts.Mode) ([]string, error) {
	if r.screen == nil {
		return nil, fmt.Errorf("no screen source configured")
	}

	criteria := r.config.AfternoonCriteria
	if mode == contracts.ModeMorning {
		criteria = r.config.MorningCriteria
	}

	tickers, err := r.screen.Screen(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("screen %s: %w", criteria.SortBy, err)
	}
	return tickers, nil
}

func errString(err error) string {
	if err == nil {
		return "empty result"
	}
	return err.Error()
}

// tickerSet keeps first-seen order
type tickerSet struct {
	seen  map[string]bool
	order []string
}

func newTickerSet() *tickerSet {
	return &tickerSet{seen: make(map[string]bool)}
}

// add returns the number of non-empty tickers offered, duplicates included
func (s *tickerSet) add(tickers []string) int {
	n := 0
	for _, raw := range tickers {
		t := contracts.NormalizeTicker(raw)
		if t == "" {
			continue
		}
		n++
		if s.seen[t] {
			continue
		}
		s.seen[t] = true
		s.order = append(s.order, t)
	}
	return n
}

func (s *tickerSet) list() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
