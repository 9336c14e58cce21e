package goapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// Diagnosis is the outcome of a connectivity probe
type Diagnosis struct {
	Ticker     string
	Date       string
	StatusCode int
	Kind       contracts.ErrorKind
	Message    string
	Sample     string
	Duration   time.Duration
}

// OK reports whether the probe succeeded
func (d *Diagnosis) OK() bool {
	return d.Kind == contracts.KindNone
}

// Diagnose sends one broker summary request and interprets the status code
func (c *Client) Diagnose(ctx context.Context, ticker string, date time.Time) *Diagnosis {
	d := &Diagnosis{
		Ticker: ticker,
		Date:   date.Format(contracts.DateLayout),
	}

	start := time.Now()
	body, status, err := c.get(ctx, "/stock/idx/"+url.PathEscape(ticker)+"/broker_summary", url.Values{"date": {d.Date}})
	d.Duration = time.Since(start)
	d.StatusCode = status
	d.Sample = snippet(body)

	if err == nil {
		err = checkEnvelope(body)
	}
	d.Kind = contracts.Classify(err)
	d.Message = describe(status, d.Kind, err)
	return d
}

func describe(status int, kind contracts.ErrorKind, err error) string {
	switch {
	case kind == contracts.KindNone:
		return "connected, broker summary available"
	case status == http.StatusUnauthorized:
		return "API key is wrong or expired"
	case status == http.StatusForbidden:
		return "forbidden: plan quota exhausted or IP blocked"
	case status == http.StatusNotFound:
		return "endpoint or ticker not found"
	case kind == contracts.KindMalformed:
		return "unexpected payload: " + err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case status == 0:
		return "connection error: " + err.Error()
	default:
		return "unexpected error: " + err.Error()
	}
}
