package contracts

import "time"

// ScanResult is the full per-ticker outcome of a run
type ScanResult struct {
	Ticker   string       `json:"ticker"`
	Flow     FlowSummary  `json:"flow"`
	Signal   Signal       `json:"signal"`
	Lookback *Signal      `json:"lookback,omitempty"` // signal over the lookback range, when fetched
	Price    PriceContext `json:"price"`
	RankKey  int          `json:"rank_key"`
}

// ReportStatus is the overall outcome of a run
type ReportStatus string

const (
	StatusOK                   ReportStatus = "ok"
	StatusNoSignificantResults ReportStatus = "no_significant_results"
	StatusEmptyUniverse        ReportStatus = "empty_universe"
)

// Report is the ranked output of one run
// ⭐ SSOT: S3 → S4 notification payload
type Report struct {
	RunID       string       `json:"run_id"`
	Window      TimeWindow   `json:"window"`
	Status      ReportStatus `json:"status"`
	GeneratedAt time.Time    `json:"generated_at"`

	// Morning
	Plan []ScanResult `json:"plan,omitempty"`

	// Afternoon
	Winners   []ScanResult `json:"winners,omitempty"`
	Losers    []ScanResult `json:"losers,omitempty"` // weakest first
	Highlight *ScanResult  `json:"highlight,omitempty"`

	// Run bookkeeping
	Unauthorized bool `json:"unauthorized"` // breaker tripped during the run
	Scanned      int  `json:"scanned"`      // tickers attempted
	Included     int  `json:"included"`     // tickers with a ScanResult
	Skipped      int  `json:"skipped"`      // tickers dropped (no data, upstream error)
}

// HasResults checks if any section carries a result
func (r *Report) HasResults() bool {
	return len(r.Plan) > 0 || len(r.Winners) > 0 || len(r.Losers) > 0
}
