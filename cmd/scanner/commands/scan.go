package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/external/telegram"
	"github.com/nicholaslie90/stck-scanner/internal/scanner"
	"github.com/nicholaslie90/stck-scanner/internal/window"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan and send the report",
	Long: `Runs the full pipeline once:
window → universe → broker flow signals → ranking → Telegram report.

Without --mode the operating mode follows the clock: before the morning
cutoff (market time) the previous session is reviewed as a plan, after
it the current session is reviewed.

Example:
  go run ./cmd/scanner scan
  go run ./cmd/scanner scan --mode morning --dry-run
  go run ./cmd/scanner scan --tickers BBCA,TLKM --date 2024-01-10
  go run ./cmd/scanner scan --workers 4 --json`,
	RunE: runScan,
}

var (
	scanMode    string
	scanDate    string
	scanDryRun  bool
	scanTickers string
	scanWorkers int
	scanJSON    bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanMode, "mode", "auto", "morning, afternoon or auto")
	scanCmd.Flags().StringVar(&scanDate, "date", "", "target session date (YYYY-MM-DD)")
	scanCmd.Flags().BoolVar(&scanDryRun, "dry-run", false, "print the report without sending it")
	scanCmd.Flags().StringVar(&scanTickers, "tickers", "", "comma separated tickers, replaces the universe")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "concurrent tickers (default SCAN_WORKERS)")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print the run result as JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	mode, _, err := contracts.ParseMode(scanMode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, appOptions{workers: scanWorkers})
	if err != nil {
		return err
	}
	defer app.Close()

	opts := scanner.RunOptions{
		Mode:    mode,
		Tickers: splitTickers(scanTickers),
		DryRun:  scanDryRun,
	}
	if scanDate != "" {
		date, err := window.ParseDate(scanDate, app.Config.Location())
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		opts.Date = date
	}

	result, runErr := app.Engine.Run(ctx, opts)
	if result == nil {
		return runErr
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		return runErr
	}

	PrintRunSummary(result)

	if scanDryRun || !result.Notified {
		fmt.Println()
		PrintSeparator()
		fmt.Println(telegram.PlainText(result.Message))
		PrintSeparator()
	}

	switch {
	case runErr != nil:
		PrintError(runErr.Error())
	case result.Notified:
		PrintSuccess("Report sent to Telegram")
	case scanDryRun:
		PrintInfo("Dry run, nothing was sent")
	}
	return runErr
}
