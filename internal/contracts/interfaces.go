package contracts

import "context"

// BrokerFlowSource fetches the raw broker summary payload of a ticker
// ⭐ SSOT: upstream broker summary interface
type BrokerFlowSource interface {
	FetchBrokerFlow(ctx context.Context, ticker string, r DateRange) ([]byte, error)
}

// PriceHistorySource fetches daily bars for a ticker
type PriceHistorySource interface {
	FetchPriceHistory(ctx context.Context, ticker string, r DateRange) ([]PriceBar, error)
}

// ScreenSource ranks the market and returns raw symbols
type ScreenSource interface {
	Screen(ctx context.Context, criteria ScreenCriteria) ([]string, error)
}

// WatchlistSource loads user-curated symbols
type WatchlistSource interface {
	Load(ctx context.Context) ([]string, error)
}

// Notifier delivers a rendered message
type Notifier interface {
	Send(ctx context.Context, text string) error
}
