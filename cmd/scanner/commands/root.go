package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "IDX smart-money broker flow scanner",
	Long: `IDX Smart-Money Scanner

Scans broker summaries of IDX stocks, scores institutional versus
retail flow and sends a morning plan or afternoon review to Telegram.

Usage:
  go run ./cmd/scanner [command]

Examples:
  go run ./cmd/scanner scan --mode afternoon --dry-run
  go run ./cmd/scanner scan --tickers BBCA,BBRI --date 2024-01-10
  go run ./cmd/scanner scheduler start
  go run ./cmd/scanner api
  go run ./cmd/scanner check-api BBCA`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML file (default SCAN_STRATEGY_PATH, then built-in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
