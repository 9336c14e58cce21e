package s1_universe

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// FileWatchlist reads tickers from a plain-text file
// One or more tickers per line (comma or space separated); # starts a comment.
type FileWatchlist struct {
	path string
}

// NewFileWatchlist creates a file-backed watchlist
func NewFileWatchlist(path string) *FileWatchlist {
	return &FileWatchlist{path: path}
}

// Load reads and normalizes the file
func (w *FileWatchlist) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()

	tickers, err := ParseWatchlist(f)
	if err != nil {
		return nil, fmt.Errorf("read watchlist %s: %w", w.path, err)
	}
	return tickers, nil
}

// ParseWatchlist normalizes and de-duplicates tickers, keeping first-seen order
func ParseWatchlist(r io.Reader) ([]string, error) {
	set := newTickerSet()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		set.add(fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return set.list(), nil
}

var _ contracts.WatchlistSource = (*FileWatchlist)(nil)
