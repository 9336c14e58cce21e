package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicholaslie90/stck-scanner/internal/api/handlers"
	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/metrics"
	"github.com/nicholaslie90/stck-scanner/internal/scanner"
	"github.com/nicholaslie90/stck-scanner/internal/scheduler"
	"github.com/nicholaslie90/stck-scanner/pkg/logger"
)

type fakeEngine struct {
	mu      sync.Mutex
	latest  *scanner.RunResult
	running bool
	runs    chan scanner.RunOptions
}

func (f *fakeEngine) Run(ctx context.Context, opts scanner.RunOptions) (*scanner.RunResult, error) {
	f.runs <- opts
	return &scanner.RunResult{}, nil
}

func (f *fakeEngine) Latest() *scanner.RunResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *fakeEngine) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

type noopJob struct{}

func (noopJob) Name() string                  { return "scan_morning" }
func (noopJob) Schedule() string              { return "0 30 8 * * 1-5" }
func (noopJob) Run(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T, engine *fakeEngine) http.Handler {
	t.Helper()

	log := logger.Nop()
	sched := scheduler.New(log)
	require.NoError(t, sched.AddJob(noopJob{}))

	return NewRouter(Handlers{
		Scan:    handlers.NewScanHandler(context.Background(), engine, time.UTC, log),
		Jobs:    handlers.NewJobsHandler(sched, log),
		Metrics: metrics.New().Handler(),
	}, log)
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestRouter(t, &fakeEngine{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestRouter(t, &fakeEngine{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLatestReport(t *testing.T) {
	engine := &fakeEngine{}
	router := newTestRouter(t, engine)

	rec := do(router, http.MethodGet, "/api/report/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	engine.latest = &scanner.RunResult{
		RunID:   "run-1",
		Message: "📡 <b>SMART BANDAR DETECTOR</b>",
		Report:  &contracts.Report{Status: contracts.StatusOK},
	}

	rec = do(router, http.MethodGet, "/api/report/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body scanner.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, contracts.StatusOK, body.Report.Status)

	rec = do(router, http.MethodGet, "/api/report/latest?format=text", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, engine.latest.Message, rec.Body.String())
}

func TestTriggerScan(t *testing.T) {
	engine := &fakeEngine{runs: make(chan scanner.RunOptions, 1)}
	router := newTestRouter(t, engine)

	rec := do(router, http.MethodPost, "/api/scan", `{"mode":"pagi","date":"2024-01-10","tickers":["bbca.jk",""],"dry_run":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case opts := <-engine.runs:
		assert.Equal(t, contracts.ModeMorning, opts.Mode)
		assert.Equal(t, "2024-01-10", opts.Date.Format(contracts.DateLayout))
		assert.Equal(t, []string{"BBCA"}, opts.Tickers)
		assert.True(t, opts.DryRun)
	case <-time.After(time.Second):
		t.Fatal("scan was not started")
	}
}

func TestTriggerScanEmptyBody(t *testing.T) {
	engine := &fakeEngine{runs: make(chan scanner.RunOptions, 1)}
	rec := do(newTestRouter(t, engine), http.MethodPost, "/api/scan", "")
	require.Equal(t, http.StatusAccepted, rec.Code)

	opts := <-engine.runs
	assert.Empty(t, opts.Mode, "auto mode")
}

func TestTriggerScanRejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		running  bool
		wantCode int
	}{
		{"bad json", `{"mode":`, false, http.StatusBadRequest},
		{"bad mode", `{"mode":"night"}`, false, http.StatusBadRequest},
		{"bad date", `{"date":"10/01/2024"}`, false, http.StatusBadRequest},
		{"already running", `{}`, true, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{running: tt.running}
			rec := do(newTestRouter(t, engine), http.MethodPost, "/api/scan", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestJobs(t *testing.T) {
	router := newTestRouter(t, &fakeEngine{})

	rec := do(router, http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Jobs []scheduler.JobStats `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Jobs, 1)
	assert.Equal(t, "scan_morning", body.Jobs[0].JobName)

	rec = do(router, http.MethodPost, "/api/jobs/scan_morning/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(router, http.MethodPost, "/api/jobs/missing/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestRouter(t, &fakeEngine{}), http.MethodGet, "/api/scan", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
