package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/external/goapi"
	"github.com/nicholaslie90/stck-scanner/internal/window"
	"github.com/nicholaslie90/stck-scanner/pkg/httputil"
)

// checkAPICmd represents the check-api command
var checkAPICmd = &cobra.Command{
	Use:   "check-api [ticker]",
	Short: "Probe the broker summary API",
	Long: `Sends a single broker summary request and explains the result.

Interprets 200 (ok), 401 (bad key), 403 (quota or IP block) and
404 (endpoint or ticker) and shows a sample of the payload.

Example:
  go run ./cmd/scanner check-api
  go run ./cmd/scanner check-api TLKM --date 2024-01-10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheckAPI,
}

var checkDate string

func init() {
	rootCmd.AddCommand(checkAPICmd)

	checkAPICmd.Flags().StringVar(&checkDate, "date", "", "session date (default last trading day)")
}

func runCheckAPI(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireGoAPIKey(); err != nil {
		PrintError("GOAPI_KEY is not set, add it to .env")
		return err
	}

	ticker := "BBCA"
	if len(args) == 1 {
		ticker = contracts.NormalizeTicker(args[0])
	}

	loc := cfg.Location()
	date := window.LastTradingDay(time.Now().In(loc))
	if checkDate != "" {
		if date, err = window.ParseDate(checkDate, loc); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	client := goapi.NewClient(httputil.New(cfg, log).DisableRetry(), cfg.GoAPI.BaseURL, cfg.GoAPI.APIKey, log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GoAPI.Timeout+5*time.Second)
	defer cancel()

	PrintHeader("GoAPI diagnostics")
	PrintKeyValue("Base URL", cfg.GoAPI.BaseURL)
	PrintKeyValue("API key", maskKey(cfg.GoAPI.APIKey))

	d := client.Diagnose(ctx, ticker, date)

	PrintKeyValue("Ticker", d.Ticker)
	PrintKeyValue("Date", d.Date)
	PrintKeyValue("HTTP status", fmt.Sprintf("%d", d.StatusCode))
	PrintKeyValue("Duration", d.Duration.Round(time.Millisecond).String())
	if d.Sample != "" {
		PrintKeyValue("Sample", d.Sample)
	}
	PrintSeparator()

	if !d.OK() {
		PrintError(d.Message)
		return fmt.Errorf("api check failed: %s", d.Kind)
	}
	PrintSuccess(d.Message)
	return nil
}

// maskKey keeps the first and last four characters
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
