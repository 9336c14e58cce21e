package contracts

import (
	"fmt"
	"sort"
	"strings"
)

// NoBroker marks an absent top buyer or seller
const NoBroker = ""

// NormalizeTicker uppercases a symbol and strips the exchange prefix/suffix
// ("IDX:BBCA", "bbca.jk" → "BBCA")
func NormalizeTicker(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if idx := strings.LastIndex(t, ":"); idx >= 0 {
		t = t[idx+1:]
	}
	t = strings.TrimSuffix(t, ".JK")
	return strings.TrimSpace(t)
}

// BrokerTransaction is one broker's aggregate activity in a ticker for one session
// SignedValue > 0 = net buying, < 0 = net selling
type BrokerTransaction struct {
	BrokerCode  string  `json:"broker_code"`
	SignedValue float64 `json:"signed_value"`
	AvgPrice    float64 `json:"avg_price"`
}

// CohortRole is the scoring role of a cohort
type CohortRole string

const (
	RoleInstitutional CohortRole = "institutional"
	RoleRetail        CohortRole = "retail"
	RoleOther         CohortRole = "other"
)

// IsValid checks if the role is known
func (r CohortRole) IsValid() bool {
	switch r {
	case RoleInstitutional, RoleRetail, RoleOther:
		return true
	default:
		return false
	}
}

// Cohort is a named set of broker codes
type Cohort struct {
	Name  string     `json:"name" yaml:"name"`
	Role  CohortRole `json:"role" yaml:"role"`
	Codes []string   `json:"codes" yaml:"codes"`
}

// CohortSet is an immutable, disjoint collection of cohorts
// ⭐ SSOT: broker code → cohort membership
type CohortSet struct {
	cohorts []Cohort
	index   map[string]int // broker code → cohort position
}

// NewCohortSet builds a cohort set; a broker code may belong to one cohort only
func NewCohortSet(cohorts []Cohort) (*CohortSet, error) {
	set := &CohortSet{
		cohorts: make([]Cohort, 0, len(cohorts)),
		index:   make(map[string]int),
	}

	names := make(map[string]bool, len(cohorts))
	for i, c := range cohorts {
		if c.Name == "" {
			return nil, fmt.Errorf("cohort %d: name is required", i)
		}
		if names[c.Name] {
			return nil, fmt.Errorf("cohort %q: duplicate name", c.Name)
		}
		names[c.Name] = true

		if !c.Role.IsValid() {
			return nil, fmt.Errorf("cohort %q: invalid role %q", c.Name, c.Role)
		}

		codes := make([]string, 0, len(c.Codes))
		for _, raw := range c.Codes {
			code := strings.ToUpper(strings.TrimSpace(raw))
			if code == "" {
				continue
			}
			if prev, exists := set.index[code]; exists {
				return nil, fmt.Errorf("broker %s is in both %q and %q", code, set.cohorts[prev].Name, c.Name)
			}
			set.index[code] = len(set.cohorts)
			codes = append(codes, code)
		}

		set.cohorts = append(set.cohorts, Cohort{Name: c.Name, Role: c.Role, Codes: codes})
	}

	return set, nil
}

// Cohorts returns the cohorts in configuration order
func (s *CohortSet) Cohorts() []Cohort {
	out := make([]Cohort, len(s.cohorts))
	copy(out, s.cohorts)
	return out
}

// Lookup returns the cohort a broker code belongs to
func (s *CohortSet) Lookup(code string) (Cohort, bool) {
	idx, ok := s.index[strings.ToUpper(code)]
	if !ok {
		return Cohort{}, false
	}
	return s.cohorts[idx], true
}

// HasRole reports whether the broker code belongs to a cohort of the given role
func (s *CohortSet) HasRole(code string, role CohortRole) bool {
	if code == NoBroker {
		return false
	}
	c, ok := s.Lookup(code)
	return ok && c.Role == role
}

// RoleNet sums the cohort net values of every cohort with the given role
func (s *CohortSet) RoleNet(flow *FlowSummary, role CohortRole) float64 {
	total := 0.0
	for _, c := range s.cohorts {
		if c.Role == role {
			total += flow.CohortNetValues[c.Name]
		}
	}
	return total
}

// Codes returns all classified broker codes, sorted
func (s *CohortSet) Codes() []string {
	codes := make([]string, 0, len(s.index))
	for code := range s.index {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// FlowSummary is the aggregated broker flow of a ticker for one range
// ⭐ SSOT: S2 aggregator → scorer / price enricher
type FlowSummary struct {
	Ticker            string             `json:"ticker"`
	BuyValueTop3      float64            `json:"buy_value_top3"`
	SellValueTop3     float64            `json:"sell_value_top3"`
	NetValue          float64            `json:"net_value"` // BuyValueTop3 - SellValueTop3
	TopBuyerCode      string             `json:"top_buyer_code"`
	TopSellerCode     string             `json:"top_seller_code"`
	TopBuyerAvgPrice  float64            `json:"top_buyer_avg_price"`
	TopSellerAvgPrice float64            `json:"top_seller_avg_price"`
	CohortNetValues   map[string]float64 `json:"cohort_net_values"`
	TransactionCount  int                `json:"transaction_count"`
}

// HasTopBuyer checks if any broker bought
func (f *FlowSummary) HasTopBuyer() bool {
	return f.TopBuyerCode != NoBroker
}

// HasTopSeller checks if any broker sold
func (f *FlowSummary) HasTopSeller() bool {
	return f.TopSellerCode != NoBroker
}
