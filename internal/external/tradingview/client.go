package tradingview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/pkg/httputil"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Source name used in upstream errors
const Source = "tradingview"

// Client queries the TradingView market scanner
// ⭐ SSOT: market screen calls happen in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	market     string
}

// NewClient creates a new screener client
func NewClient(httpClient *httputil.Client, baseURL, market string, log *logger.Logger) *Client {
	if market == "" {
		market = "indonesia"
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		market:     market,
	}
}

type filter struct {
	Left      string  `json:"left"`
	Operation string  `json:"operation"`
	Right     float64 `json:"right"`
}

type sortSpec struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

type scanRequest struct {
	Filter  []filter          `json:"filter"`
	Options map[string]string `json:"options"`
	Markets []string          `json:"markets"`
	Columns []string          `json:"columns"`
	Sort    sortSpec          `json:"sort"`
	Range   [2]int            `json:"range"`
}

// buildRequest maps criteria to the scanner query
// close >= MinPrice, Value.Traded > MinTradedValue, sorted descending
func (c *Client) buildRequest(criteria contracts.ScreenCriteria) scanRequest {
	sortBy := criteria.SortBy
	if sortBy == "" {
		sortBy = contracts.SortTradedValue
	}

	return scanRequest{
		Filter: []filter{
			{Left: "close", Operation: "egreater", Right: criteria.MinPrice},
			{Left: "Value.Traded", Operation: "greater", Right: criteria.MinTradedValue},
		},
		Options: map[string]string{"lang": "en"},
		Markets: []string{c.market},
		Columns: []string{"name", "close", "volume", "Value.Traded", "market_cap_basic"},
		Sort:    sortSpec{SortBy: string(sortBy), SortOrder: "desc"},
		Range:   [2]int{0, criteria.Limit},
	}
}

// Screen returns normalized symbols in ranking order
func (c *Client) Screen(ctx context.Context, criteria contracts.ScreenCriteria) ([]string, error) {
	url := fmt.Sprintf("%s/%s/scan", c.baseURL, c.market)

	resp, err := c.httpClient.PostJSON(ctx, url, c.buildRequest(criteria))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, contracts.NewUpstreamError(Source, 0, contracts.KindUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.NewUpstreamError(Source, resp.StatusCode, contracts.KindUnavailable, err)
	}

	if kind := contracts.KindFromStatus(resp.StatusCode); kind != contracts.KindNone {
		return nil, contracts.NewUpstreamError(Source, resp.StatusCode, kind, errors.New(strings.TrimSpace(string(body))))
	}

	tickers, err := ParseScanResponse(body)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"sort_by": criteria.SortBy,
		"count":   len(tickers),
		"total":   gjson.GetBytes(body, "totalCount").Int(),
	}).Info("Market screen completed")

	return tickers, nil
}

// ParseScanResponse extracts symbols from {"data":[{"s":"IDX:BBRI","d":[...]}]}
// The exchange prefix is stripped; rows without a symbol fall back to the first column.
func ParseScanResponse(body []byte) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, contracts.NewUpstreamError(Source, 200, contracts.KindMalformed, errors.New("invalid JSON"))
	}

	rows := gjson.GetBytes(body, "data")
	if !rows.IsArray() {
		return nil, contracts.NewUpstreamError(Source, 200, contracts.KindMalformed, errors.New("missing data array"))
	}

	tickers := make([]string, 0, len(rows.Array()))
	rows.ForEach(func(_, row gjson.Result) bool {
		symbol := row.Get("s").String()
		if symbol == "" {
			symbol = row.Get("d.0").String()
		}
		if t := contracts.NormalizeTicker(symbol); t != "" {
			tickers = append(tickers, t)
		}
		return true
	})

	return tickers, nil
}

var _ contracts.ScreenSource = (*Client)(nil)
