package s2_signals

import (
	"math"
	"sort"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// topN is how many same-side transactions feed BuyValueTop3 / SellValueTop3
const topN = 3

// FlowAggregator classifies brokers into cohorts and aggregates net flow
// ⭐ SSOT: broker flow aggregation lives here only
type FlowAggregator struct {
	cohorts *contracts.CohortSet
	logger  *logger.Logger
}

// NewFlowAggregator creates a new flow aggregator
func NewFlowAggregator(cohorts *contracts.CohortSet, log *logger.Logger) *FlowAggregator {
	return &FlowAggregator{
		cohorts: cohorts,
		logger:  log,
	}
}

// Aggregate summarizes the transactions of one ticker.
// Returns false when there is nothing to summarize (the ticker is skipped).
// The input slice is not mutated.
func (a *FlowAggregator) Aggregate(ticker string, txs []contracts.BrokerTransaction) (*contracts.FlowSummary, bool) {
	if len(txs) == 0 {
		return nil, false
	}

	sorted := make([]contracts.BrokerTransaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].SignedValue) > math.Abs(sorted[j].SignedValue)
	})

	summary := &contracts.FlowSummary{
		Ticker:           ticker,
		TopBuyerCode:     contracts.NoBroker,
		TopSellerCode:    contracts.NoBroker,
		CohortNetValues:  make(map[string]float64),
		TransactionCount: len(txs),
	}

	// every configured cohort gets an entry
	for _, c := range a.cohorts.Cohorts() {
		summary.CohortNetValues[c.Name] = 0
	}

	buys, sells := 0, 0
	for _, tx := range sorted {
		switch {
		case tx.SignedValue > 0:
			if buys == 0 {
				summary.TopBuyerCode = tx.BrokerCode
				summary.TopBuyerAvgPrice = tx.AvgPrice
			}
			if buys < topN {
				summary.BuyValueTop3 += tx.SignedValue
			}
			buys++
		case tx.SignedValue < 0:
			if sells == 0 {
				summary.TopSellerCode = tx.BrokerCode
				summary.TopSellerAvgPrice = tx.AvgPrice
			}
			if sells < topN {
				summary.SellValueTop3 += -tx.SignedValue
			}
			sells++
		}

		if c, ok := a.cohorts.Lookup(tx.BrokerCode); ok {
			summary.CohortNetValues[c.Name] += tx.SignedValue
		}
	}

	summary.NetValue = summary.BuyValueTop3 - summary.SellValueTop3

	a.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"txs":        len(txs),
		"buy_top3":   summary.BuyValueTop3,
		"sell_top3":  summary.SellValueTop3,
		"net":        summary.NetValue,
		"top_buyer":  summary.TopBuyerCode,
		"top_seller": summary.TopSellerCode,
	}).Debug("Aggregated broker flow")

	return summary, true
}
