package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	r := New()

	r.RecordRun("afternoon", "ok", 12.5, 1705395600)
	r.RecordTicker("included")
	r.RecordTicker("included")
	r.RecordTicker("skipped")
	r.RecordUpstreamError("goapi", "unauthorized")
	r.RecordSignal("accumulation")
	r.RecordBreakerTrip()
	r.RecordCache("broker", true)

	if got := testutil.ToFloat64(r.tickersTotal.WithLabelValues("included")); got != 2 {
		t.Errorf("expected 2 included tickers, got %v", got)
	}
	if got := testutil.ToFloat64(r.breakerTrips); got != 1 {
		t.Errorf("expected 1 breaker trip, got %v", got)
	}
	if got := testutil.ToFloat64(r.lastRunTime); got != 1705395600 {
		t.Errorf("unexpected last run time %v", got)
	}

	mfs, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "scanner_runs_total" {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("scanner_runs_total metric not found")
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.RecordSignal("distribution")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `scanner_signals_total{direction="distribution"} 1`) {
		t.Error("signal counter missing from exposition")
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder

	// must not panic
	r.RecordRun("morning", "ok", 1, 1)
	r.RecordTicker("included")
	r.RecordUpstreamError("goapi", "unavailable")
	r.RecordSignal("neutral")
	r.RecordBreakerTrip()
	r.RecordCache("price", false)

	if r.Handler() == nil {
		t.Error("nil recorder must still serve a handler")
	}
	if r.Gatherer() != prometheus.DefaultGatherer {
		t.Error("nil recorder must fall back to the default gatherer")
	}
}
