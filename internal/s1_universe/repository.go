package s1_universe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// watchlistSchema creates the watchlist table
const watchlistSchema = `
	CREATE SCHEMA IF NOT EXISTS scanner;
	CREATE TABLE IF NOT EXISTS scanner.watchlist (
		ticker     VARCHAR(12) PRIMARY KEY,
		position   INT         NOT NULL DEFAULT 0,
		active     BOOLEAN     NOT NULL DEFAULT TRUE,
		note       TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Repository is the PostgreSQL watchlist
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the watchlist table if missing
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, watchlistSchema); err != nil {
		return fmt.Errorf("create watchlist schema: %w", err)
	}
	return nil
}

// Load returns the active tickers ordered by position
func (r *Repository) Load(ctx context.Context) ([]string, error) {
	query := `
		SELECT ticker
		FROM scanner.watchlist
		WHERE active = TRUE
		ORDER BY position, ticker
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var raw []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scan watchlist: %w", err)
		}
		raw = append(raw, ticker)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}

	set := newTickerSet()
	set.add(raw)
	return set.list(), nil
}

// Add upserts tickers at the end of the watchlist
func (r *Repository) Add(ctx context.Context, tickers ...string) error {
	query := `
		INSERT INTO scanner.watchlist (ticker, position, active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (ticker) DO UPDATE SET
			active = TRUE
	`

	for i, raw := range tickers {
		t := contracts.NormalizeTicker(raw)
		if t == "" {
			continue
		}
		if _, err := r.db.Exec(ctx, query, t, i); err != nil {
			return fmt.Errorf("insert %s: %w", t, err)
		}
	}
	return nil
}

// Remove deactivates tickers
func (r *Repository) Remove(ctx context.Context, tickers ...string) error {
	query := `UPDATE scanner.watchlist SET active = FALSE WHERE ticker = $1`

	for _, raw := range tickers {
		t := contracts.NormalizeTicker(raw)
		if _, err := r.db.Exec(ctx, query, t); err != nil {
			return fmt.Errorf("deactivate %s: %w", t, err)
		}
	}
	return nil
}

var _ contracts.WatchlistSource = (*Repository)(nil)
