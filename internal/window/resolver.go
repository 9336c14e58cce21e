package window

import (
	"fmt"
	"time"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// Defaults for the IDX market (WIB)
const (
	DefaultUTCOffsetHours    = 7
	DefaultMorningCutoffHour = 12
	DefaultLookbackDays      = 90
)

// Config configures the resolver
type Config struct {
	UTCOffsetHours    int
	MorningCutoffHour int
	LookbackDays      int
}

// Resolver maps wall-clock time to the session a run should scan
// ⭐ SSOT: mode + target date rules
type Resolver struct {
	loc          *time.Location
	cutoffHour   int
	lookbackDays int

	forcedMode contracts.Mode
	forcedDate time.Time
}

// Option customizes a Resolver
type Option func(*Resolver)

// WithMode forces the operating mode regardless of the clock
func WithMode(mode contracts.Mode) Option {
	return func(r *Resolver) {
		r.forcedMode = mode
	}
}

// WithTargetDate forces the target session date
func WithTargetDate(date time.Time) Option {
	return func(r *Resolver) {
		r.forcedDate = date
	}
}

// NewResolver creates a resolver; zero config fields fall back to the defaults
func NewResolver(cfg Config, opts ...Option) *Resolver {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = DefaultLookbackDays
	}
	if cfg.MorningCutoffHour <= 0 || cfg.MorningCutoffHour > 23 {
		cfg.MorningCutoffHour = DefaultMorningCutoffHour
	}

	r := &Resolver{
		loc:          FixedZone(cfg.UTCOffsetHours),
		cutoffHour:   cfg.MorningCutoffHour,
		lookbackDays: cfg.LookbackDays,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Location returns the market time zone
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve computes the window for the given instant
func (r *Resolver) Resolve(now time.Time) contracts.TimeWindow {
	local := now.In(r.loc)

	mode := contracts.ModeAfternoon
	if local.Hour() < r.cutoffHour {
		mode = contracts.ModeMorning
	}
	if r.forcedMode != "" {
		mode = r.forcedMode
	}

	target := midnight(local)
	if mode == contracts.ModeMorning {
		// pre-market: review the previous session
		target = target.AddDate(0, 0, -1)
	}
	if !r.forcedDate.IsZero() {
		target = midnight(r.forcedDate.In(r.loc))
	}
	target = LastTradingDay(target)

	return contracts.TimeWindow{
		TargetDate:    target,
		LookbackStart: target.AddDate(0, 0, -r.lookbackDays),
		Mode:          mode,
	}
}

// LastTradingDay rolls t backward past Saturday and Sunday.
// Exchange holidays are not modeled.
func LastTradingDay(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// FormatDate renders a date in the upstream layout
func FormatDate(t time.Time) string {
	return t.Format(contracts.DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in the given zone
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(contracts.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// FixedZone builds the UTC+offset zone
func FixedZone(offsetHours int) *time.Location {
	if offsetHours == DefaultUTCOffsetHours {
		return time.FixedZone("WIB", offsetHours*3600)
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetHours), offsetHours*3600)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
