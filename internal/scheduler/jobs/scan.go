package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/scanner"
	"github.com/nicholaslie90/stck-scanner/internal/scheduler"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Runner executes one scan
type Runner interface {
	Run(ctx context.Context, opts scanner.RunOptions) (*scanner.RunResult, error)
}

// ScanJob runs the scanner in a fixed mode on a cron schedule
// ⭐ SSOT: scheduled scans go through this job only
type ScanJob struct {
	mode     contracts.Mode
	schedule string
	runner   Runner
	logger   *logger.Logger
}

// NewScanJob creates a scan job for one mode
func NewScanJob(mode contracts.Mode, schedule string, runner Runner, log *logger.Logger) *ScanJob {
	return &ScanJob{
		mode:     mode,
		schedule: schedule,
		runner:   runner,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return fmt.Sprintf("scan_%s", j.mode)
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes the scan for the job's mode; the date follows the clock
func (j *ScanJob) Run(ctx context.Context) error {
	j.logger.WithField("mode", string(j.mode)).Info("Starting scheduled scan")

	result, err := j.runner.Run(ctx, scanner.RunOptions{Mode: j.mode})
	switch {
	case errors.Is(err, scanner.ErrRunInProgress):
		// a manual run is active, the schedule does not queue behind it
		return scheduler.NoRetry(err)
	case err != nil && result != nil:
		// the scan finished but delivery failed, rescanning would not help
		return scheduler.NoRetry(fmt.Errorf("scheduled %s scan: %w", j.mode, err))
	case err != nil:
		return fmt.Errorf("scheduled %s scan: %w", j.mode, err)
	}

	if result.Report != nil && result.Report.Unauthorized {
		return scheduler.NoRetry(fmt.Errorf("scheduled %s scan: %w", j.mode, contracts.ErrUnauthorized))
	}
	return nil
}

// ScanJobs builds the morning and afternoon jobs
func ScanJobs(morningCron, afternoonCron string, runner Runner, log *logger.Logger) []scheduler.Job {
	return []scheduler.Job{
		NewScanJob(contracts.ModeMorning, morningCron, runner, log),
		NewScanJob(contracts.ModeAfternoon, afternoonCron, runner, log),
	}
}
