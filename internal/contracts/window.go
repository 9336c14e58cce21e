package contracts

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the upstream date format (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// Mode is the time-of-day operating mode of a run
type Mode string

const (
	ModeMorning   Mode = "morning"   // pre-market plan over the previous session
	ModeAfternoon Mode = "afternoon" // review of the current session
)

// ParseMode parses a mode flag value; empty means "auto"
func ParseMode(s string) (Mode, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", false, nil
	case "morning", "pagi":
		return ModeMorning, true, nil
	case "afternoon", "sore":
		return ModeAfternoon, true, nil
	default:
		return "", false, fmt.Errorf("invalid mode %q (want morning, afternoon or auto)", s)
	}
}

// TimeWindow is the resolved session a run scans
// ⭐ SSOT: S0 → S1/S2 target session and operating mode
type TimeWindow struct {
	TargetDate    time.Time `json:"target_date"`
	LookbackStart time.Time `json:"lookback_start"`
	Mode          Mode      `json:"mode"`
}

// TargetRange is the single-session range of the target date
func (w TimeWindow) TargetRange() DateRange {
	return DateRange{From: w.TargetDate, To: w.TargetDate}
}

// LookbackRange spans lookback start through target date
func (w TimeWindow) LookbackRange() DateRange {
	return DateRange{From: w.LookbackStart, To: w.TargetDate}
}

// DateRange is an inclusive calendar range
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// IsSingleDay reports whether From and To fall on the same calendar date
func (r DateRange) IsSingleDay() bool {
	return r.From.Format(DateLayout) == r.To.Format(DateLayout)
}

// String renders the range as "from~to" or a single date
func (r DateRange) String() string {
	if r.IsSingleDay() {
		return r.From.Format(DateLayout)
	}
	return r.From.Format(DateLayout) + "~" + r.To.Format(DateLayout)
}
