package scanner

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nicholaslie90/stck-scanner/internal/breaker"
	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/s0_data"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Ticker outcomes
const (
	OutcomeIncluded = "included"
	OutcomeNoData   = "no_data"
	OutcomeError    = "error"
	OutcomeStopped  = "stopped"
)

// scanAll scans tickers with at most config.Workers in flight.
// Returns the results in universe order and how many tickers were attempted.
func (e *Engine) scanAll(ctx context.Context, log *logger.Logger, tw contracts.TimeWindow, tickers []string, brk *breaker.Breaker) ([]contracts.ScanResult, int) {
	var (
		mu      sync.Mutex
		slots   = make([]*contracts.ScanResult, len(tickers))
		scanned int
		g       errgroup.Group
	)
	sem := make(chan struct{}, e.config.Workers)

scheduling:
	for i, ticker := range tickers {
		// a slot is taken first so the check sees trips from every finished ticker
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break scheduling
		}
		if brk.Tripped() || ctx.Err() != nil {
			<-sem
			break
		}
		scanned++

		i, ticker := i, ticker
		g.Go(func() error {
			defer func() { <-sem }()

			res := e.scanTicker(ctx, log.WithTicker(ticker), tw, ticker, brk)
			if res == nil {
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if brk.Tripped() {
				e.deps.Metrics.RecordTicker(OutcomeStopped)
				return nil
			}
			slots[i] = res
			e.deps.Metrics.RecordTicker(OutcomeIncluded)
			e.deps.Metrics.RecordSignal(string(res.Signal.Direction))
			return nil
		})
	}
	_ = g.Wait()

	results := make([]contracts.ScanResult, 0, len(tickers))
	for _, res := range slots {
		if res != nil {
			results = append(results, *res)
		}
	}

	if brk.Tripped() && scanned < len(tickers) {
		log.WithFields(map[string]interface{}{
			"scanned":   scanned,
			"remaining": len(tickers) - scanned,
		}).Warn("Scan stopped early by circuit breaker")
	}
	return results, scanned
}

// scanTicker runs S2 for one ticker. nil means the ticker is skipped.
func (e *Engine) scanTicker(ctx context.Context, log *logger.Logger, tw contracts.TimeWindow, ticker string, brk *breaker.Breaker) *contracts.ScanResult {
	raw, err := e.deps.Brokers.FetchBrokerFlow(ctx, ticker, tw.TargetRange())
	if err != nil {
		e.upstreamFailure(ctx, log, brk, "broker flow", err)
		return nil
	}

	txs := s0_data.NormalizeBrokerPayload(raw)
	flow, ok := e.deps.Aggregator.Aggregate(ticker, txs)
	if !ok {
		log.WithField("shape", s0_data.DetectShape(raw).String()).Debug("No broker transactions, skipping")
		e.deps.Metrics.RecordTicker(OutcomeNoData)
		return nil
	}
	signal := e.deps.Scorer.Score(flow)

	res := &contracts.ScanResult{
		Ticker: ticker,
		Flow:   *flow,
		Signal: signal,
	}

	if e.config.MomentumLookback && !tw.LookbackRange().IsSingleDay() {
		if lookback, ok := e.lookbackSignal(ctx, log, brk, tw, ticker); ok {
			res.Lookback = lookback
		}
	}

	if brk.Tripped() {
		return nil
	}

	bars, err := e.deps.Prices.FetchPriceHistory(ctx, ticker, tw.LookbackRange())
	if err != nil {
		if contracts.IsUnauthorized(err) {
			e.upstreamFailure(ctx, log, brk, "price history", err)
			return nil
		}
		// price context degrades, the ticker stays
		e.deps.Metrics.RecordUpstreamError(upstreamSource(err), string(contracts.Classify(err)))
		log.WithError(err).Debug("Price history unavailable, using degraded context")
		bars = nil
	}
	res.Price = e.deps.Enricher.Enrich(bars, flow)

	log.WithFields(map[string]interface{}{
		"score":     signal.Score,
		"direction": signal.Direction,
		"net":       flow.NetValue,
		"position":  res.Price.Position,
	}).Debug("Ticker scored")
	return res
}

// lookbackSignal scores the multi-day flow. Failures only drop the bonus.
func (e *Engine) lookbackSignal(ctx context.Context, log *logger.Logger, brk *breaker.Breaker, tw contracts.TimeWindow, ticker string) (*contracts.Signal, bool) {
	raw, err := e.deps.Brokers.FetchBrokerFlow(ctx, ticker, tw.LookbackRange())
	if err != nil {
		if contracts.IsUnauthorized(err) {
			e.upstreamFailure(ctx, log, brk, "lookback flow", err)
		} else {
			e.deps.Metrics.RecordUpstreamError(upstreamSource(err), string(contracts.Classify(err)))
			log.WithError(err).Debug("Lookback flow unavailable")
		}
		return nil, false
	}

	flow, ok := e.deps.Aggregator.Aggregate(ticker, s0_data.NormalizeBrokerPayload(raw))
	if !ok {
		return nil, false
	}
	signal := e.deps.Scorer.Score(flow)
	return &signal, true
}

// upstreamFailure logs a fetch error and trips the breaker on unauthorized
func (e *Engine) upstreamFailure(ctx context.Context, log *logger.Logger, brk *breaker.Breaker, what string, err error) {
	kind := contracts.Classify(err)
	if kind == contracts.KindCanceled {
		e.deps.Metrics.RecordTicker(OutcomeStopped)
		return
	}

	e.deps.Metrics.RecordUpstreamError(upstreamSource(err), string(kind))
	e.deps.Metrics.RecordTicker(OutcomeError)

	if kind == contracts.KindUnauthorized {
		brk.Trip(ctx, err)
		return
	}
	log.WithError(err).WithField("kind", string(kind)).Warnf("Failed to fetch %s, skipping", what)
}

func upstreamSource(err error) string {
	var upstream *contracts.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Source
	}
	return "unknown"
}
