package contracts

import "time"

// Universe sources
const (
	SourceStatic    = "static"
	SourceWatchlist = "watchlist"
	SourceScreen    = "screen"
)

// Universe is the ordered, de-duplicated set of tickers a run scans
// ⭐ SSOT: S1 → S2 ticker list
type Universe struct {
	Date         time.Time      `json:"date"`
	Mode         Mode           `json:"mode"`
	Tickers      []string       `json:"tickers"`
	SourceCounts map[string]int `json:"source_counts"` // contribution per source, before dedupe
	FallbackUsed bool           `json:"fallback_used"` // screen failed or was empty
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker string) bool {
	for _, t := range u.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Count returns the number of tickers
func (u *Universe) Count() int {
	return len(u.Tickers)
}

// ScreenSort is the ranking column of a market screen
type ScreenSort string

const (
	SortMarketCap   ScreenSort = "market_cap_basic"
	SortTradedValue ScreenSort = "Value.Traded"
	SortVolume      ScreenSort = "volume"
)

// ScreenCriteria parameterizes a market screen
type ScreenCriteria struct {
	SortBy         ScreenSort `json:"sort_by"`
	MinPrice       float64    `json:"min_price"`
	MinTradedValue float64    `json:"min_traded_value"`
	Limit          int        `json:"limit"`
}
