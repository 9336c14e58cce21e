package s0_data

import (
	"math"
	"sort"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// BarIssue explains why a bar was rejected
type BarIssue string

const (
	IssueNoClose      BarIssue = "no_close"
	IssueBadRange     BarIssue = "bad_range"
	IssueNegativeVol  BarIssue = "negative_volume"
	IssueNotFinite    BarIssue = "not_finite"
	IssueDuplicateDay BarIssue = "duplicate_day"
)

// BarQuality reports how many bars were kept and why others were dropped
type BarQuality struct {
	Total    int              `json:"total"`
	Kept     int              `json:"kept"`
	Rejected map[BarIssue]int `json:"rejected,omitempty"`
}

// Coverage returns kept / total (0 when empty)
func (q BarQuality) Coverage() float64 {
	if q.Total == 0 {
		return 0
	}
	return float64(q.Kept) / float64(q.Total)
}

// CleanBars returns a date-ascending copy of bars with unusable sessions removed.
// When a date appears twice the later entry wins. The input is not mutated.
func CleanBars(bars []contracts.PriceBar) ([]contracts.PriceBar, BarQuality) {
	q := BarQuality{Total: len(bars), Rejected: make(map[BarIssue]int)}

	byDay := make(map[string]int, len(bars))
	out := make([]contracts.PriceBar, 0, len(bars))

	for _, b := range bars {
		if issue, ok := validateBar(b); !ok {
			q.Rejected[issue]++
			continue
		}

		key := b.Date.Format(contracts.DateLayout)
		if idx, seen := byDay[key]; seen {
			out[idx] = b
			q.Rejected[IssueDuplicateDay]++
			continue
		}
		byDay[key] = len(out)
		out = append(out, b)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	q.Kept = len(out)
	return out, q
}

func validateBar(b contracts.PriceBar) (BarIssue, bool) {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return IssueNotFinite, false
		}
	}

	if b.Close <= 0 {
		return IssueNoClose, false
	}

	if b.Volume < 0 {
		return IssueNegativeVol, false
	}

	// High/Low of 0 means the feed only carried a close
	if b.High > 0 && b.Low > 0 && b.High < b.Low {
		return IssueBadRange, false
	}

	return "", true
}
