package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nicholaslie90/stck-scanner/internal/strategyconfig"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the strategy configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective strategy and its hash",
	Long: `Loads the strategy (--strategy, SCAN_STRATEGY_PATH or the built-in
reference), validates it and prints it with its SHA256 hash.

Example:
  go run ./cmd/scanner config show
  go run ./cmd/scanner config show --strategy config/strategy/idx_smart_money.yaml --format json`,
	RunE: runConfigShow,
}

var configFormat string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "yaml or json")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	appCfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	path := appCfg.Scan.StrategyPath

	cfg, err := strategyconfig.LoadOrDefault(path)
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return err
	}

	source := path
	if source == "" {
		source = "built-in reference"
	}
	fmt.Fprintf(os.Stderr, "# source: %s\n# hash:   %s\n", source, hash)

	switch configFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", configFormat)
	}
}
