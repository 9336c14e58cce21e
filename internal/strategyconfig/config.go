package strategyconfig

import (
	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/s2_signals"
)

// Config is the scanner strategy (YAML SSOT)
// ⭐ SSOT: cohorts, thresholds and ranking sizes are read from here only
type Config struct {
	Meta         Meta                          `yaml:"meta" json:"meta"`
	Cohorts      []contracts.Cohort            `yaml:"cohorts" json:"cohorts" validate:"required,min=1"`
	Brokers      []Broker                      `yaml:"brokers" json:"brokers" validate:"dive"`
	Scoring      s2_signals.ScoringConfig      `yaml:"scoring" json:"scoring"`
	PriceContext s2_signals.PriceContextConfig `yaml:"price_context" json:"price_context"`
	Universe     UniverseConfig                `yaml:"universe" json:"universe"`
	Selection    SelectionConfig               `yaml:"selection" json:"selection"`
	Report       ReportConfig                  `yaml:"report" json:"report"`
}

// Meta identifies the strategy
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id" default:"idx_smart_money" validate:"required"`
	Version    string `yaml:"version" json:"version" default:"1.0"`
}

// Broker is one entry of the broker directory
// Kept as a slice so the config hash is reproducible
type Broker struct {
	Code string `yaml:"code" json:"code" validate:"required,len=2,alpha"`
	Name string `yaml:"name" json:"name" validate:"required"`
}

// UniverseConfig selects and filters the instruments to scan
type UniverseConfig struct {
	Sources []string     `yaml:"sources" json:"sources" default:"[\"screen\"]" validate:"required,min=1,dive,oneof=static watchlist screen"`
	Static  []string     `yaml:"static" json:"static"`
	Screen  ScreenConfig `yaml:"screen" json:"screen"`
}

// ScreenConfig is the market screener filter
type ScreenConfig struct {
	MinPrice       float64 `yaml:"min_price" json:"min_price" default:"50" validate:"gte=0"`
	MinTradedValue float64 `yaml:"min_traded_value" json:"min_traded_value" default:"2000000000" validate:"gte=0"`
	Limit          int     `yaml:"limit" json:"limit" default:"15" validate:"gt=0,lte=200"`
	MorningSort    string  `yaml:"morning_sort" json:"morning_sort" default:"market_cap_basic" validate:"required"`
	AfternoonSort  string  `yaml:"afternoon_sort" json:"afternoon_sort" default:"Value.Traded" validate:"required"`
}

// SelectionConfig holds the ranking and report sizes
type SelectionConfig struct {
	MorningTop          int  `yaml:"morning_top" json:"morning_top" default:"5" validate:"gt=0"`
	AfternoonWinners    int  `yaml:"afternoon_winners" json:"afternoon_winners" default:"5" validate:"gt=0"`
	AfternoonLosers     int  `yaml:"afternoon_losers" json:"afternoon_losers" default:"3" validate:"gte=0"`
	RequireAccumulation bool `yaml:"require_accumulation" json:"require_accumulation" default:"true"`
	MomentumBonus       int  `yaml:"momentum_bonus" json:"momentum_bonus" default:"1" validate:"gte=0"`
}

// ReportConfig controls rendering
type ReportConfig struct {
	Title    string `yaml:"title" json:"title" default:"SMART BANDAR DETECTOR" validate:"required"`
	MaxChunk int    `yaml:"max_chunk" json:"max_chunk" default:"4000" validate:"gte=500,lte=4096"`
	ShowTags bool   `yaml:"show_tags" json:"show_tags" default:"true"`
}

// CohortSet builds the lookup structure used by the signal stage
func (c *Config) CohortSet() (*contracts.CohortSet, error) {
	return contracts.NewCohortSet(c.Cohorts)
}

// BrokerDirectory returns code → firm name
func (c *Config) BrokerDirectory() map[string]string {
	dir := make(map[string]string, len(c.Brokers))
	for _, b := range c.Brokers {
		dir[b.Code] = b.Name
	}
	return dir
}

// ScreenCriteria returns the screener request for the given mode
func (c *Config) ScreenCriteria(mode contracts.Mode) contracts.ScreenCriteria {
	sortBy := contracts.ScreenSort(c.Universe.Screen.AfternoonSort)
	if mode == contracts.ModeMorning {
		sortBy = contracts.ScreenSort(c.Universe.Screen.MorningSort)
	}

	return contracts.ScreenCriteria{
		SortBy:         sortBy,
		MinPrice:       c.Universe.Screen.MinPrice,
		MinTradedValue: c.Universe.Screen.MinTradedValue,
		Limit:          c.Universe.Screen.Limit,
	}
}
