package selection

import (
	"sort"
	"time"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Config holds the ranking and report sizes
type Config struct {
	MorningTop          int  // K for the morning plan
	AfternoonWinners    int  // K winners
	AfternoonLosers     int  // K losers
	RequireAccumulation bool // morning plan keeps Accumulation verdicts only
	MomentumBonus       int  // added when the lookback verdict is Accumulation
}

// Assembler ranks scan results and builds the mode-specific report
// ⭐ SSOT: S3 ranking and selection live here only
type Assembler struct {
	config Config
	logger *logger.Logger
	now    func() time.Time
}

// NewAssembler creates a new assembler
func NewAssembler(config Config, log *logger.Logger) *Assembler {
	return &Assembler{
		config: config,
		logger: log,
		now:    time.Now,
	}
}

// Rank sets RankKey and sorts descending
// Ties: Score desc, NetValue desc, ticker asc. The input is not modified.
func (a *Assembler) Rank(results []contracts.ScanResult) []contracts.ScanResult {
	ranked := make([]contracts.ScanResult, len(results))
	copy(ranked, results)

	for i := range ranked {
		ranked[i].RankKey = ranked[i].Signal.Score
		if ranked[i].Lookback.IsAccumulation() {
			ranked[i].RankKey += a.config.MomentumBonus
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		x, y := ranked[i], ranked[j]
		if x.RankKey != y.RankKey {
			return x.RankKey > y.RankKey
		}
		if x.Signal.Score != y.Signal.Score {
			return x.Signal.Score > y.Signal.Score
		}
		if x.Flow.NetValue != y.Flow.NetValue {
			return x.Flow.NetValue > y.Flow.NetValue
		}
		return x.Ticker < y.Ticker
	})

	return ranked
}

// Assemble ranks results and selects the sections for the window's mode
func (a *Assembler) Assemble(window contracts.TimeWindow, results []contracts.ScanResult) *contracts.Report {
	ranked := a.Rank(results)

	report := &contracts.Report{
		Window:      window,
		GeneratedAt: a.now(),
		Included:    len(results),
	}

	switch window.Mode {
	case contracts.ModeMorning:
		report.Plan = a.morningPlan(ranked)
	default:
		report.Winners = a.winners(ranked)
		report.Losers = a.losers(ranked)
		// the top-ranked result, even when nothing has a positive key
		if len(ranked) > 0 {
			top := ranked[0]
			report.Highlight = &top
		}
	}

	report.Status = contracts.StatusOK
	if !report.HasResults() {
		report.Status = contracts.StatusNoSignificantResults
	}

	a.logger.WithFields(map[string]interface{}{
		"mode":    window.Mode,
		"results": len(results),
		"plan":    len(report.Plan),
		"winners": len(report.Winners),
		"losers":  len(report.Losers),
		"status":  report.Status,
	}).Info("Report assembled")

	return report
}

func (a *Assembler) morningPlan(ranked []contracts.ScanResult) []contracts.ScanResult {
	plan := make([]contracts.ScanResult, 0, a.config.MorningTop)
	for _, r := range ranked {
		if len(plan) >= a.config.MorningTop {
			break
		}
		if a.config.RequireAccumulation && r.Signal.Direction != contracts.DirectionAccumulation {
			continue
		}
		if r.RankKey <= 0 {
			continue
		}
		plan = append(plan, r)
	}
	return plan
}

func (a *Assembler) winners(ranked []contracts.ScanResult) []contracts.ScanResult {
	out := make([]contracts.ScanResult, 0, a.config.AfternoonWinners)
	for _, r := range ranked {
		if len(out) >= a.config.AfternoonWinners || r.RankKey <= 0 {
			break
		}
		out = append(out, r)
	}
	return out
}

// losers walks from the bottom, weakest first
func (a *Assembler) losers(ranked []contracts.ScanResult) []contracts.ScanResult {
	out := make([]contracts.ScanResult, 0, a.config.AfternoonLosers)
	for i := len(ranked) - 1; i >= 0; i-- {
		if len(out) >= a.config.AfternoonLosers || ranked[i].RankKey >= 0 {
			break
		}
		out = append(out, ranked[i])
	}
	return out
}
