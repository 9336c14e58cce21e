package strategyconfig

import (
	"errors"
	"os"
	"testing"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/s2_signals"
)

func TestLoad(t *testing.T) {
	path := "../../config/strategy/idx_smart_money.yaml"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Skip("config file not found")
	}

	cfg, yamlData, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Meta.StrategyID != "idx_smart_money" {
		t.Errorf("expected strategy_id=idx_smart_money, got %s", cfg.Meta.StrategyID)
	}
	if cfg.Universe.Screen.MinTradedValue != 2_000_000_000 {
		t.Errorf("expected min_traded_value=2_000_000_000, got %v", cfg.Universe.Screen.MinTradedValue)
	}

	// brokers omitted from the file keep the reference directory
	if got := cfg.BrokerDirectory()["BK"]; got != "JP Morgan" {
		t.Errorf("expected BK=JP Morgan, got %q", got)
	}

	hash, err := Hash(cfg)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if len(hash) != 64 {
		t.Errorf("expected 64 char hash, got %d", len(hash))
	}

	// file mirrors the built-in reference
	defHash, _ := Hash(Default())
	if hash != defHash {
		t.Errorf("file hash %s differs from default hash %s", hash, defHash)
	}

	t.Logf("config hash: %s", hash)
	t.Logf("yaml size: %d bytes", len(yamlData))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := Validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	// struct tags and named constants agree
	if cfg.Scoring != s2_signals.DefaultScoringConfig() {
		t.Errorf("scoring defaults drifted: %+v", cfg.Scoring)
	}
	if cfg.PriceContext != s2_signals.DefaultPriceContextConfig() {
		t.Errorf("price context defaults drifted: %+v", cfg.PriceContext)
	}

	if cfg.Selection.MorningTop != 5 || !cfg.Selection.RequireAccumulation || cfg.Selection.MomentumBonus != 1 {
		t.Errorf("unexpected selection defaults: %+v", cfg.Selection)
	}
	if cfg.Report.MaxChunk != 4000 || !cfg.Report.ShowTags {
		t.Errorf("unexpected report defaults: %+v", cfg.Report)
	}
	if len(cfg.Universe.Sources) != 1 || cfg.Universe.Sources[0] != contracts.SourceScreen {
		t.Errorf("unexpected sources: %v", cfg.Universe.Sources)
	}
	if len(cfg.Universe.Static) != 12 {
		t.Errorf("expected 12 fallback tickers, got %d", len(cfg.Universe.Static))
	}

	set, err := cfg.CohortSet()
	if err != nil {
		t.Fatalf("CohortSet failed: %v", err)
	}
	if !set.HasRole("BK", contracts.RoleInstitutional) || !set.HasRole("YP", contracts.RoleRetail) {
		t.Error("reference cohorts not classified")
	}
	if _, ok := set.Lookup("XZ"); ok {
		t.Error("XZ is directory only, must not be classified")
	}

	if warnings := Warn(cfg); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
}

func TestDefaultIsIndependent(t *testing.T) {
	a := Default()
	a.Cohorts[0].Codes[0] = "ZZ"
	a.Universe.Static[0] = "ZZZZ"

	b := Default()
	if b.Cohorts[0].Codes[0] != "BK" || b.Universe.Static[0] != "BBRI" {
		t.Error("Default shares slices between calls")
	}
}

func TestParsePartial(t *testing.T) {
	cfg, err := Parse([]byte(`
selection:
  morning_top: 3
  afternoon_losers: 0
  require_accumulation: false
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Selection.MorningTop != 3 {
		t.Errorf("expected morning_top=3, got %d", cfg.Selection.MorningTop)
	}
	// explicit zero and false survive
	if cfg.Selection.AfternoonLosers != 0 {
		t.Errorf("expected afternoon_losers=0, got %d", cfg.Selection.AfternoonLosers)
	}
	if cfg.Selection.RequireAccumulation {
		t.Error("expected require_accumulation=false")
	}
	// untouched sections keep the reference
	if cfg.Scoring.InstitutionalHigh != s2_signals.DefaultInstitutionalHigh {
		t.Errorf("expected reference institutional_high, got %v", cfg.Scoring.InstitutionalHigh)
	}
	if len(cfg.Cohorts) != 2 {
		t.Errorf("expected reference cohorts, got %d", len(cfg.Cohorts))
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte("scoring:\n  institutional_hgih: 5\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "overlapping cohorts",
			mutate: func(c *Config) { c.Cohorts[1].Codes = append(c.Cohorts[1].Codes, "BK") },
			field:  "cohorts",
		},
		{
			name:   "no cohorts",
			mutate: func(c *Config) { c.Cohorts = nil },
			field:  "cohorts",
		},
		{
			name:   "institutional tiers inverted",
			mutate: func(c *Config) { c.Scoring.InstitutionalLow = 2 * c.Scoring.InstitutionalHigh },
			field:  "scoring.institutional_low",
		},
		{
			name:   "retail exit positive",
			mutate: func(c *Config) { c.Scoring.RetailExit = 1 },
			field:  "scoring.retail_exit",
		},
		{
			name:   "unknown source",
			mutate: func(c *Config) { c.Universe.Sources = []string{"rss"} },
			field:  "universe.sources[0]",
		},
		{
			name: "static source without list",
			mutate: func(c *Config) {
				c.Universe.Sources = []string{contracts.SourceStatic}
				c.Universe.Static = nil
			},
			field: "universe.static",
		},
		{
			name:   "duplicate broker",
			mutate: func(c *Config) { c.Brokers = append(c.Brokers, Broker{Code: "BK", Name: "Again"}) },
			field:  "brokers[33].code",
		},
		{
			name:   "chunk too large",
			mutate: func(c *Config) { c.Report.MaxChunk = 10000 },
			field:  "report.max_chunk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var vErr ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("expected field %s, got %s (%s)", tt.field, vErr.Field, vErr.Message)
			}
		})
	}
}

func TestWarn(t *testing.T) {
	cfg := Default()
	cfg.Cohorts = cfg.Cohorts[:1] // institutional only

	warnings := Warn(cfg)
	found := false
	for _, w := range warnings {
		if w.Code == "NO_RETAIL_COHORT" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected NO_RETAIL_COHORT warning, got %v", warnings)
	}
}

func TestScreenCriteria(t *testing.T) {
	cfg := Default()

	morning := cfg.ScreenCriteria(contracts.ModeMorning)
	if morning.SortBy != contracts.SortMarketCap {
		t.Errorf("morning sort: got %s", morning.SortBy)
	}

	afternoon := cfg.ScreenCriteria(contracts.ModeAfternoon)
	if afternoon.SortBy != contracts.SortTradedValue {
		t.Errorf("afternoon sort: got %s", afternoon.SortBy)
	}
	if afternoon.MinPrice != 50 || afternoon.Limit != 15 {
		t.Errorf("unexpected filter: %+v", afternoon)
	}
}

func TestHashChangesWithConfig(t *testing.T) {
	a, _ := Hash(Default())

	cfg := Default()
	cfg.Scoring.TopBuyerPoints = 4
	b, _ := Hash(cfg)

	if a == b {
		t.Error("hash must change when scoring changes")
	}
}
