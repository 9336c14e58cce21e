package scanner

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/metrics"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
	"github.com/nicholaslie90/stck-scanner/pkg/redis"
)

// Cache kinds for metrics
const (
	cacheBroker = "broker"
	cachePrice  = "price"
	cacheScreen = "screen"
)

// sessionClock decides whether a range is a completed session
type sessionClock struct {
	loc *time.Location
	now func() time.Time
}

// completed reports whether the range ends before today
func (c sessionClock) completed(r contracts.DateRange) bool {
	today := c.now().In(c.loc).Format(contracts.DateLayout)
	return r.To.Format(contracts.DateLayout) < today
}

// CachedBrokerSource caches broker summaries of completed sessions
type CachedBrokerSource struct {
	next    contracts.BrokerFlowSource
	cache   *redis.Cache
	clock   sessionClock
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewCachedBrokerSource wraps next. A disabled cache passes through.
func NewCachedBrokerSource(next contracts.BrokerFlowSource, cache *redis.Cache, loc *time.Location, rec *metrics.Recorder, log *logger.Logger) *CachedBrokerSource {
	return &CachedBrokerSource{
		next:    next,
		cache:   cache,
		clock:   sessionClock{loc: loc, now: time.Now},
		metrics: rec,
		logger:  log,
	}
}

// FetchBrokerFlow implements contracts.BrokerFlowSource
func (s *CachedBrokerSource) FetchBrokerFlow(ctx context.Context, ticker string, r contracts.DateRange) ([]byte, error) {
	if !s.cache.Enabled() || !s.clock.completed(r) {
		return s.next.FetchBrokerFlow(ctx, ticker, r)
	}

	key := redis.BrokerSummaryKey(ticker, r.From.Format(contracts.DateLayout), r.To.Format(contracts.DateLayout))

	var cached json.RawMessage
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).Debug("Broker cache read failed")
	}
	s.metrics.RecordCache(cacheBroker, found)
	if found {
		return cached, nil
	}

	raw, err := s.next.FetchBrokerFlow(ctx, ticker, r)
	if err != nil {
		return nil, err
	}
	if json.Valid(raw) {
		if err := s.cache.Set(ctx, key, json.RawMessage(raw), redis.TTLDaily); err != nil {
			s.logger.WithError(err).Debug("Broker cache write failed")
		}
	}
	return raw, nil
}

// CachedPriceSource caches price history ending on a completed session
type CachedPriceSource struct {
	next    contracts.PriceHistorySource
	cache   *redis.Cache
	clock   sessionClock
	metrics *metrics.Recorder
	logger  *logger.Logger
}

// NewCachedPriceSource wraps next. A disabled cache passes through.
func NewCachedPriceSource(next contracts.PriceHistorySource, cache *redis.Cache, loc *time.Location, rec *metrics.Recorder, log *logger.Logger) *CachedPriceSource {
	return &CachedPriceSource{
		next:    next,
		cache:   cache,
		clock:   sessionClock{loc: loc, now: time.Now},
		metrics: rec,
		logger:  log,
	}
}

// FetchPriceHistory implements contracts.PriceHistorySource
func (s *CachedPriceSource) FetchPriceHistory(ctx context.Context, ticker string, r contracts.DateRange) ([]contracts.PriceBar, error) {
	if !s.cache.Enabled() || !s.clock.completed(r) {
		return s.next.FetchPriceHistory(ctx, ticker, r)
	}

	key := redis.PriceHistoryKey(ticker, r.From.Format(contracts.DateLayout), r.To.Format(contracts.DateLayout))

	var bars []contracts.PriceBar
	found, err := s.cache.Get(ctx, key, &bars)
	if err != nil {
		s.logger.WithError(err).Debug("Price cache read failed")
	}
	s.metrics.RecordCache(cachePrice, found)
	if found {
		return bars, nil
	}

	bars, err = s.next.FetchPriceHistory(ctx, ticker, r)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := s.cache.Set(ctx, key, bars, redis.TTLDaily); err != nil {
			s.logger.WithError(err).Debug("Price cache write failed")
		}
	}
	return bars, nil
}

// CachedScreenSource caches screener results for a few minutes
type CachedScreenSource struct {
	next    contracts.ScreenSource
	cache   *redis.Cache
	metrics *metrics.Recorder
}

// NewCachedScreenSource wraps next. A disabled cache passes through.
func NewCachedScreenSource(next contracts.ScreenSource, cache *redis.Cache, rec *metrics.Recorder) *CachedScreenSource {
	return &CachedScreenSource{
		next:    next,
		cache:   cache,
		metrics: rec,
	}
}

// Screen implements contracts.ScreenSource
func (s *CachedScreenSource) Screen(ctx context.Context, criteria contracts.ScreenCriteria) ([]string, error) {
	if !s.cache.Enabled() {
		return s.next.Screen(ctx, criteria)
	}

	key := redis.ScreenKey(string(criteria.SortBy), criteria.Limit)

	var symbols []string
	found, _ := s.cache.Get(ctx, key, &symbols)
	s.metrics.RecordCache(cacheScreen, found)
	if found && len(symbols) > 0 {
		return symbols, nil
	}

	symbols, err := s.next.Screen(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(symbols) > 0 {
		_ = s.cache.Set(ctx, key, symbols, redis.TTLMedium)
	}
	return symbols, nil
}
