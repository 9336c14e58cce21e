package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicholaslie90/stck-scanner/internal/scheduler"
	"github.com/nicholaslie90/stck-scanner/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run scans on a schedule",
	Long: `Starts the cron daemon or manages its jobs.

Subcommands:
  start   - start the scheduler daemon
  list    - list registered jobs and their next run
  run     - run one job immediately

Schedules are evaluated in market time (SCAN_UTC_OFFSET_HOURS) and are
set with SCAN_MORNING_CRON and SCAN_AFTERNOON_CRON (seconds field first).

Example:
  go run ./cmd/scanner scheduler start
  go run ./cmd/scanner scheduler list
  go run ./cmd/scanner scheduler run scan_afternoon`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		Long: `Registers the scan jobs and blocks until Ctrl+C.

Registered jobs:
- scan_morning: pre-market plan over the previous session
- scan_afternoon: review of the current session`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers the scan jobs on a scheduler in market time
func newScheduler(app *App) (*scheduler.Scheduler, error) {
	sched := scheduler.New(app.Logger, scheduler.WithLocation(app.Config.Location()))

	for _, job := range jobs.ScanJobs(app.Config.Scan.MorningCron, app.Config.Scan.AfternoonCron, app.Engine, app.Logger) {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	PrintHeader("Scanner Scheduler")

	app, err := newApp(context.Background(), appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := newScheduler(app)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	PrintSuccess("Scheduler started")
	printJobTable(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	PrintSuccess("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	app, err := newApp(context.Background(), appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := newScheduler(app)
	if err != nil {
		return err
	}

	PrintHeader("Registered jobs")
	printJobTable(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	sched, err := newScheduler(app)
	if err != nil {
		return err
	}

	result, err := sched.RunJobSync(ctx, args[0])
	if err != nil {
		PrintError(fmt.Sprintf("%s failed after %d attempt(s): %v", args[0], result.Attempts, err))
		return err
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", args[0], result.Duration.Round(time.Millisecond)))
	if latest := app.Engine.Latest(); latest != nil {
		PrintRunSummary(latest)
	}
	return nil
}

func printJobTable(sched *scheduler.Scheduler) {
	widths := []int{16, 18, 26}
	PrintTableHeader([]string{"Job", "Schedule", "Next run"}, widths)
	for _, st := range sched.GetJobStats() {
		next := "-"
		if st.NextRun != nil {
			next = st.NextRun.In(sched.Location()).Format("2006-01-02 15:04 MST")
		}
		PrintTableRow([]string{st.JobName, st.Schedule, next}, widths)
	}
}
