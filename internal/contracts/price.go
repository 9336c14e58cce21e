package contracts

import "time"

// PriceBar is one daily OHLCV session
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// TypicalPrice returns (high + low + close) / 3
func (b PriceBar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Position is where the current price sits relative to the reference
type Position string

const (
	PositionDiscount Position = "discount"
	PositionFair     Position = "fair"
	PositionPremium  Position = "premium"
)

// PriceContext positions the current price against the volume-weighted reference
// ⭐ SSOT: S2 price enricher → S3 report
type PriceContext struct {
	ReferencePrice float64  `json:"reference_price"`
	CurrentPrice   float64  `json:"current_price"`
	ChangePct      float64  `json:"change_pct"`
	Position       Position `json:"position"`
	Degraded       bool     `json:"degraded"` // no usable history, top buyer avg used
	Sessions       int      `json:"sessions"`
}
