package goapi

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// FetchPriceHistory returns daily bars for the range (upstream order)
func (c *Client) FetchPriceHistory(ctx context.Context, ticker string, r contracts.DateRange) ([]contracts.PriceBar, error) {
	params := url.Values{}
	params.Set("from", r.From.Format(contracts.DateLayout))
	params.Set("to", r.To.Format(contracts.DateLayout))

	body, _, err := c.get(ctx, fmt.Sprintf("/stock/idx/%s/historical", url.PathEscape(ticker)), params)
	if err != nil {
		return nil, err
	}

	if err := checkEnvelope(body); err != nil {
		return nil, err
	}

	return ParseHistorical(body), nil
}

// ParseHistorical extracts bars from {"data":{"results":[...]}} or {"data":[...]}
// Rows with an unparseable date are dropped; numeric strings are accepted.
func ParseHistorical(body []byte) []contracts.PriceBar {
	root := gjson.ParseBytes(body)

	rows := root.Get("data.results")
	if !rows.IsArray() {
		rows = root.Get("data")
	}
	if !rows.IsArray() {
		rows = root.Get("results")
	}
	if !rows.IsArray() {
		return []contracts.PriceBar{}
	}

	bars := make([]contracts.PriceBar, 0, len(rows.Array()))
	rows.ForEach(func(_, row gjson.Result) bool {
		date, err := parseDate(row.Get("date").String())
		if err != nil {
			return true
		}

		bars = append(bars, contracts.PriceBar{
			Date:   date,
			Open:   row.Get("open").Float(),
			High:   row.Get("high").Float(),
			Low:    row.Get("low").Float(),
			Close:  row.Get("close").Float(),
			Volume: row.Get("volume").Float(),
		})
		return true
	})

	return bars
}

func parseDate(s string) (time.Time, error) {
	if len(s) >= len(contracts.DateLayout) {
		return time.Parse(contracts.DateLayout, s[:len(contracts.DateLayout)])
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
