package contracts

// Pipeline stage definitions (SSOT)
// Every log line, metric label and run summary uses these constants.
//
// Pipeline flow:
//   S0 → S1 → S2 → S3 → S4
//   Window  Universe  Signals  Report  Notify

// Stage represents a pipeline stage
type Stage string

const (
	// StageWindow S0: resolve mode + target session
	// Location: internal/window/
	StageWindow Stage = "S0_WINDOW"

	// StageUniverse S1: resolve the tickers to scan
	// Location: internal/s1_universe/
	StageUniverse Stage = "S1_UNIVERSE"

	// StageSignals S2: fetch, normalize, aggregate, score, enrich per ticker
	// Location: internal/s0_data/, internal/s2_signals/
	StageSignals Stage = "S2_SIGNALS"

	// StageReport S3: rank and assemble the report
	// Location: internal/selection/
	StageReport Stage = "S3_REPORT"

	// StageNotify S4: render and deliver
	// Location: internal/report/, internal/external/telegram/
	StageNotify Stage = "S4_NOTIFY"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "S0", "S1")
func (s Stage) ShortName() string {
	switch s {
	case StageWindow:
		return "S0"
	case StageUniverse:
		return "S1"
	case StageSignals:
		return "S2"
	case StageReport:
		return "S3"
	case StageNotify:
		return "S4"
	default:
		return "UNKNOWN"
	}
}

// Description returns a human description of the stage
func (s Stage) Description() string {
	switch s {
	case StageWindow:
		return "time window"
	case StageUniverse:
		return "universe"
	case StageSignals:
		return "broker flow signals"
	case StageReport:
		return "ranking and report"
	case StageNotify:
		return "notification"
	default:
		return "unknown"
	}
}

// AllStages returns all pipeline stages in order
func AllStages() []Stage {
	return []Stage{
		StageWindow,
		StageUniverse,
		StageSignals,
		StageReport,
		StageNotify,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// StageResult records the outcome of one stage in a run
type StageResult struct {
	Stage       Stage  `json:"stage"`
	Success     bool   `json:"success"`
	InputCount  int    `json:"input_count"`
	OutputCount int    `json:"output_count"`
	Duration    int64  `json:"duration_ms"`
	Error       string `json:"error,omitempty"`
}
