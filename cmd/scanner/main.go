package main

import (
	"os"

	"github.com/nicholaslie90/stck-scanner/cmd/scanner/commands"
)

// main is the entry point for the scanner CLI
// ⭐ single CLI entry point: go run ./cmd/scanner [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
