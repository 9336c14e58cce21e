package s2_signals

import (
	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// Reference scoring configuration
const (
	DefaultInstitutionalHigh = 1_000_000_000 // 1 M (miliar) IDR
	DefaultInstitutionalLow  = 200_000_000
	DefaultRetailExit        = -500_000_000
	DefaultRetailFomo        = 1_000_000_000

	DefaultInstitutionalHighPoints = 3
	DefaultInstitutionalLowPoints  = 1
	DefaultRetailExitPoints        = 2
	DefaultRetailFomoPenalty       = 3
	DefaultTopBuyerPoints          = 2
	DefaultTopBuyerRetailPenalty   = 2
	DefaultWhaleEatsRetailPoints   = 2

	DefaultAccumulationMin = 3
	DefaultDistributionMax = -2
)

// ScoringConfig holds every threshold and delta of the scorer
// Penalties are stored as positive magnitudes and subtracted.
type ScoringConfig struct {
	InstitutionalHigh float64 `yaml:"institutional_high" json:"institutional_high" default:"1000000000" validate:"gt=0"`
	InstitutionalLow  float64 `yaml:"institutional_low" json:"institutional_low" default:"200000000" validate:"gte=0,ltefield=InstitutionalHigh"`
	RetailExit        float64 `yaml:"retail_exit" json:"retail_exit" default:"-500000000" validate:"lt=0"`
	RetailFomo        float64 `yaml:"retail_fomo" json:"retail_fomo" default:"1000000000" validate:"gt=0"`

	InstitutionalHighPoints int `yaml:"institutional_high_points" json:"institutional_high_points" default:"3" validate:"gte=0"`
	InstitutionalLowPoints  int `yaml:"institutional_low_points" json:"institutional_low_points" default:"1" validate:"gte=0"`
	RetailExitPoints        int `yaml:"retail_exit_points" json:"retail_exit_points" default:"2" validate:"gte=0"`
	RetailFomoPenalty       int `yaml:"retail_fomo_penalty" json:"retail_fomo_penalty" default:"3" validate:"gte=0"`
	TopBuyerPoints          int `yaml:"top_buyer_points" json:"top_buyer_points" default:"2" validate:"gte=0"`
	TopBuyerRetailPenalty   int `yaml:"top_buyer_retail_penalty" json:"top_buyer_retail_penalty" default:"2" validate:"gte=0"`
	WhaleEatsRetailPoints   int `yaml:"whale_eats_retail_points" json:"whale_eats_retail_points" default:"2" validate:"gte=0"`

	AccumulationMin int `yaml:"accumulation_min" json:"accumulation_min" default:"3" validate:"gt=0"`
	DistributionMax int `yaml:"distribution_max" json:"distribution_max" default:"-2" validate:"lt=0"`
}

// DefaultScoringConfig returns the reference configuration
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		InstitutionalHigh:       DefaultInstitutionalHigh,
		InstitutionalLow:        DefaultInstitutionalLow,
		RetailExit:              DefaultRetailExit,
		RetailFomo:              DefaultRetailFomo,
		InstitutionalHighPoints: DefaultInstitutionalHighPoints,
		InstitutionalLowPoints:  DefaultInstitutionalLowPoints,
		RetailExitPoints:        DefaultRetailExitPoints,
		RetailFomoPenalty:       DefaultRetailFomoPenalty,
		TopBuyerPoints:          DefaultTopBuyerPoints,
		TopBuyerRetailPenalty:   DefaultTopBuyerRetailPenalty,
		WhaleEatsRetailPoints:   DefaultWhaleEatsRetailPoints,
		AccumulationMin:         DefaultAccumulationMin,
		DistributionMax:         DefaultDistributionMax,
	}
}

// Scorer turns a FlowSummary into a Signal
// ⭐ SSOT: score rules live here only; the output depends on the summary and config alone
type Scorer struct {
	cfg     ScoringConfig
	cohorts *contracts.CohortSet
}

// NewScorer creates a new scorer
func NewScorer(cfg ScoringConfig, cohorts *contracts.CohortSet) *Scorer {
	return &Scorer{
		cfg:     cfg,
		cohorts: cohorts,
	}
}

// Score evaluates the rules in order. Tags are appended in rule order.
func (s *Scorer) Score(flow *contracts.FlowSummary) contracts.Signal {
	sig := contracts.Signal{Tags: []string{}}
	if flow == nil {
		sig.Direction = contracts.DirectionNeutral
		return sig
	}

	instNet := s.cohorts.RoleNet(flow, contracts.RoleInstitutional)
	retailNet := s.cohorts.RoleNet(flow, contracts.RoleRetail)

	// 1. Institutional accumulation (tiers are exclusive)
	switch {
	case instNet > s.cfg.InstitutionalHigh:
		sig.Score += s.cfg.InstitutionalHighPoints
		sig.AddTag(contracts.TagCohortIn)
	case instNet > s.cfg.InstitutionalLow:
		sig.Score += s.cfg.InstitutionalLowPoints
	}

	// 2. Retail behaviour (exit or FOMO, never both)
	switch {
	case retailNet < s.cfg.RetailExit:
		sig.Score += s.cfg.RetailExitPoints
		sig.AddTag(contracts.TagCohortOut)
	case retailNet > s.cfg.RetailFomo:
		sig.Score -= s.cfg.RetailFomoPenalty
		sig.AddTag(contracts.TagCohortFomo)
	}

	// 3. Who leads the buying
	switch {
	case s.cohorts.HasRole(flow.TopBuyerCode, contracts.RoleInstitutional):
		sig.Score += s.cfg.TopBuyerPoints
	case s.cohorts.HasRole(flow.TopBuyerCode, contracts.RoleRetail):
		sig.Score -= s.cfg.TopBuyerRetailPenalty
	}

	// 4. Institutions absorbing retail supply
	if s.cohorts.HasRole(flow.TopSellerCode, contracts.RoleRetail) && sig.HasTag(contracts.TagCohortIn) {
		sig.Score += s.cfg.WhaleEatsRetailPoints
		sig.AddTag(contracts.TagWhaleEatsRetail)
	}

	sig.Direction = s.Direction(sig.Score)
	return sig
}

// Direction maps a score to the verdict
func (s *Scorer) Direction(score int) contracts.Direction {
	switch {
	case score >= s.cfg.AccumulationMin:
		return contracts.DirectionAccumulation
	case score <= s.cfg.DistributionMax:
		return contracts.DirectionDistribution
	default:
		return contracts.DirectionNeutral
	}
}
