package goapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/pkg/httputil"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

// Source name used in upstream errors
const Source = "goapi"

// maxBodyBytes caps a single upstream response
const maxBodyBytes = 4 << 20

// Client handles communication with the IDX broker summary API
// ⭐ SSOT: GoAPI calls happen in this client only
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	apiKey     string
}

// NewClient creates a new GoAPI client
func NewClient(httpClient *httputil.Client, baseURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// FetchBrokerFlow returns the raw broker summary payload
// A single-day range is sent as date=, anything else as from=/to=.
func (c *Client) FetchBrokerFlow(ctx context.Context, ticker string, r contracts.DateRange) ([]byte, error) {
	params := url.Values{}
	if r.IsSingleDay() {
		params.Set("date", r.From.Format(contracts.DateLayout))
	} else {
		params.Set("from", r.From.Format(contracts.DateLayout))
		params.Set("to", r.To.Format(contracts.DateLayout))
	}

	body, _, err := c.get(ctx, fmt.Sprintf("/stock/idx/%s/broker_summary", url.PathEscape(ticker)), params)
	if err != nil {
		return nil, err
	}

	if err := checkEnvelope(body); err != nil {
		return nil, err
	}
	return body, nil
}

// get performs an authenticated GET and maps the status code
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, contracts.NewUpstreamError(Source, 0, contracts.KindUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, contracts.NewUpstreamError(Source, resp.StatusCode, contracts.KindUnavailable, fmt.Errorf("read body: %w", err))
	}

	if kind := contracts.KindFromStatus(resp.StatusCode); kind != contracts.KindNone {
		return body, resp.StatusCode, contracts.NewUpstreamError(Source, resp.StatusCode, kind, errors.New(snippet(body)))
	}

	return body, resp.StatusCode, nil
}

// checkEnvelope rejects {"status":"error"} and empty data envelopes
func checkEnvelope(body []byte) error {
	if !gjson.ValidBytes(body) {
		return contracts.NewUpstreamError(Source, http.StatusOK, contracts.KindMalformed, errors.New("invalid JSON"))
	}

	root := gjson.ParseBytes(body)
	if status := root.Get("status"); status.Exists() && !strings.EqualFold(status.String(), "success") {
		return contracts.NewUpstreamError(Source, http.StatusOK, contracts.KindMalformed,
			fmt.Errorf("status %q: %s", status.String(), root.Get("message").String()))
	}

	if data := root.Get("data"); root.Get("status").Exists() && isEmpty(data) {
		return contracts.NewUpstreamError(Source, http.StatusOK, contracts.KindMalformed, errors.New("empty data"))
	}

	return nil
}

func isEmpty(v gjson.Result) bool {
	if !v.Exists() || v.Type == gjson.Null {
		return true
	}
	if v.IsObject() || v.IsArray() {
		empty := true
		v.ForEach(func(_, _ gjson.Result) bool {
			empty = false
			return false
		})
		return empty
	}
	return false
}

// snippet shortens a body for error messages
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	if s == "" {
		s = "empty body"
	}
	return s
}

var (
	_ contracts.BrokerFlowSource   = (*Client)(nil)
	_ contracts.PriceHistorySource = (*Client)(nil)
)
