package s2_signals

import (
	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/s0_data"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Reference price-position tolerances
const (
	DefaultDiscountTolerance = 0.02
	DefaultPremiumTolerance  = 0.05
)

// PriceContextConfig holds the price-position tolerances
type PriceContextConfig struct {
	DiscountTolerance float64 `yaml:"discount_tolerance" json:"discount_tolerance" default:"0.02" validate:"gte=0,lt=1"`
	PremiumTolerance  float64 `yaml:"premium_tolerance" json:"premium_tolerance" default:"0.05" validate:"gte=0"`
}

// DefaultPriceContextConfig returns the reference tolerances
func DefaultPriceContextConfig() PriceContextConfig {
	return PriceContextConfig{
		DiscountTolerance: DefaultDiscountTolerance,
		PremiumTolerance:  DefaultPremiumTolerance,
	}
}

// PriceContextEnricher positions the current price against the lookback VWAP
// ⭐ SSOT: price position rules live here only
type PriceContextEnricher struct {
	cfg    PriceContextConfig
	logger *logger.Logger
}

// NewPriceContextEnricher creates a new enricher
func NewPriceContextEnricher(cfg PriceContextConfig, log *logger.Logger) *PriceContextEnricher {
	return &PriceContextEnricher{
		cfg:    cfg,
		logger: log,
	}
}

// Enrich never fails: without usable bars it degrades to the top buyer's average cost
func (e *PriceContextEnricher) Enrich(bars []contracts.PriceBar, flow *contracts.FlowSummary) contracts.PriceContext {
	topBuyerAvg := 0.0
	if flow != nil {
		topBuyerAvg = flow.TopBuyerAvgPrice
	}

	cleaned, quality := s0_data.CleanBars(bars)
	if len(cleaned) == 0 {
		if quality.Total > 0 {
			e.logger.WithFields(map[string]interface{}{
				"bars":     quality.Total,
				"rejected": quality.Rejected,
			}).Debug("No usable price bars, degrading to top buyer average")
		}
		return contracts.PriceContext{
			ReferencePrice: topBuyerAvg,
			CurrentPrice:   topBuyerAvg,
			Position:       contracts.PositionFair,
			Degraded:       true,
		}
	}

	last := cleaned[len(cleaned)-1]
	pc := contracts.PriceContext{
		ReferencePrice: VWAP(cleaned),
		CurrentPrice:   last.Close,
		Sessions:       len(cleaned),
	}

	if len(cleaned) >= 2 {
		prev := cleaned[len(cleaned)-2].Close
		pc.ChangePct = (last.Close - prev) / prev * 100
	}

	pc.Position = e.position(pc.CurrentPrice, pc.ReferencePrice, topBuyerAvg)
	return pc
}

func (e *PriceContextEnricher) position(current, reference, topBuyerAvg float64) contracts.Position {
	switch {
	case current < reference*(1-e.cfg.DiscountTolerance):
		return contracts.PositionDiscount
	case topBuyerAvg > 0 && current < topBuyerAvg*(1-e.cfg.DiscountTolerance):
		// trading below the smart money's cost
		return contracts.PositionDiscount
	case current > reference*(1+e.cfg.PremiumTolerance):
		return contracts.PositionPremium
	default:
		return contracts.PositionFair
	}
}

// VWAP is Σ(typical·volume)/Σvolume; without any volume it is the mean typical price.
// Bars without high/low use the close as typical price.
func VWAP(bars []contracts.PriceBar) float64 {
	if len(bars) == 0 {
		return 0
	}

	var pv, vol, typicalSum float64
	for _, b := range bars {
		typical := b.Close
		if b.High > 0 && b.Low > 0 {
			typical = b.TypicalPrice()
		}
		pv += typical * b.Volume
		vol += b.Volume
		typicalSum += typical
	}

	if vol == 0 {
		return typicalSum / float64(len(bars))
	}
	return pv / vol
}
