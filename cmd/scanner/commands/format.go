package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/report"
	"github.com/nicholaslie90/stck-scanner/internal/scanner"
	"github.com/nicholaslie90/stck-scanner/internal/window"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these helpers
// ═══════════════════════════════════════════════════════════

const keyWidth = 12

// PrintHeader prints a boxed command header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintRunSummary prints the bookkeeping of a finished run
func PrintRunSummary(result *scanner.RunResult) {
	rep := result.Report

	PrintHeader("Scan " + shortID(result.RunID))
	PrintKeyValue("Mode", string(rep.Window.Mode))
	PrintKeyValue("Target", window.FormatDate(rep.Window.TargetDate))
	PrintKeyValue("Lookback", window.FormatDate(rep.Window.LookbackStart)+" ~ "+window.FormatDate(rep.Window.TargetDate))
	if result.Universe != nil {
		PrintKeyValue("Universe", fmt.Sprintf("%d tickers %v", result.Universe.Count(), result.Universe.SourceCounts))
		if result.Universe.FallbackUsed {
			PrintKeyValue("Fallback", "screen unavailable, static list used")
		}
	}
	PrintKeyValue("Status", string(rep.Status))
	PrintKeyValue("Scanned", fmt.Sprintf("%d (included %d, skipped %d)", rep.Scanned, rep.Included, rep.Skipped))
	PrintKeyValue("Duration", result.Duration.Round(time.Millisecond).String())
	PrintSeparator()

	widths := []int{12, 7, 8, 10}
	PrintTableHeader([]string{"Stage", "OK", "In/Out", "Duration"}, widths)
	for _, st := range result.Stages {
		ok := "yes"
		if !st.Success {
			ok = "no"
		}
		PrintTableRow([]string{
			st.Stage.String(),
			ok,
			fmt.Sprintf("%d/%d", st.InputCount, st.OutputCount),
			fmt.Sprintf("%dms", st.Duration),
		}, widths)
	}

	printResults(rep)

	if rep.Unauthorized {
		PrintWarning("API key rejected, scan stopped early. Check GOAPI_KEY.")
	}
}

// printResults prints the ranked tickers as a table
func printResults(rep *contracts.Report) {
	sections := []struct {
		title   string
		results []contracts.ScanResult
	}{
		{"Plan", rep.Plan},
		{"Winners", rep.Winners},
		{"Losers", rep.Losers},
	}

	widths := []int{8, 6, 12, 14, 10}
	for _, sec := range sections {
		if len(sec.results) == 0 {
			continue
		}
		fmt.Println()
		fmt.Printf("  %s\n", sec.title)
		PrintTableHeader([]string{"Ticker", "Score", "Direction", "Net", "Position"}, widths)
		for _, res := range sec.results {
			PrintTableRow([]string{
				res.Ticker,
				fmt.Sprintf("%d", res.RankKey),
				string(res.Signal.Direction),
				report.FormatSignedMoney(res.Flow.NetValue),
				string(res.Price.Position),
			}, widths)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// splitTickers parses a comma or space separated ticker flag
func splitTickers(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := contracts.NormalizeTicker(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}
