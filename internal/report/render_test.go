package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/external/telegram"
)

var testBrokers = map[string]string{
	"BK": "JP Morgan",
	"YP": "Mirae Asset",
	"XZ": "Trimegah (Retail) Sekuritas",
}

func testRenderer(t *testing.T) *Renderer {
	t.Helper()

	cohorts, err := contracts.NewCohortSet([]contracts.Cohort{
		{Name: "institutional", Role: contracts.RoleInstitutional, Codes: []string{"BK"}},
		{Name: "retail", Role: contracts.RoleRetail, Codes: []string{"YP"}},
	})
	require.NoError(t, err)

	return NewRenderer(Config{ShowTags: true, Brokers: testBrokers, Cohorts: cohorts})
}

func whale() contracts.ScanResult {
	return contracts.ScanResult{
		Ticker: "BBCA",
		Flow: contracts.FlowSummary{
			Ticker:           "BBCA",
			NetValue:         1.5e9,
			TopBuyerCode:     "BK",
			TopBuyerAvgPrice: 9150,
			TopSellerCode:    "YP",
			CohortNetValues:  map[string]float64{"institutional": 2e9, "retail": -1e9},
		},
		Signal: contracts.Signal{
			Score:     9,
			Tags:      []string{contracts.TagCohortIn, contracts.TagWhaleEatsRetail},
			Direction: contracts.DirectionAccumulation,
		},
		Price: contracts.PriceContext{ReferencePrice: 9000, CurrentPrice: 9100, ChangePct: 1.25, Position: contracts.PositionFair, Sessions: 60},
	}
}

func dump() contracts.ScanResult {
	return contracts.ScanResult{
		Ticker: "GOTO",
		Flow:   contracts.FlowSummary{Ticker: "GOTO", NetValue: -3.5e8, TopBuyerCode: "YP", TopSellerCode: "BK"},
		Signal: contracts.Signal{Score: -5, Tags: []string{contracts.TagCohortFomo}, Direction: contracts.DirectionDistribution},
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.5e9, "1.5 M"},
		{-2.3e9, "-2.3 M"},
		{3.5e8, "350 jt"},
		{1e6, "1 jt"},
		{999999, "999999"},
		{0, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatMoney(tt.in), "%v", tt.in)
	}

	assert.Equal(t, "+1.5 M", FormatSignedMoney(1.5e9))
	assert.Equal(t, "-350 jt", FormatSignedMoney(-3.5e8))
	assert.Equal(t, "0", FormatSignedMoney(0))
}

func TestBrokerDisplay(t *testing.T) {
	assert.Equal(t, "BK-JP Morgan", BrokerDisplay("BK", testBrokers))
	assert.Equal(t, "XZ-Trimegah (Retail)", BrokerDisplay("XZ", testBrokers))
	assert.Equal(t, "ZZ", BrokerDisplay("ZZ", testBrokers))
	assert.Equal(t, "-", BrokerDisplay(contracts.NoBroker, testBrokers))
}

func TestLabels(t *testing.T) {
	r := testRenderer(t)

	w := whale()
	assert.Equal(t, LabelWhaleEatsRetail, r.Label(&w))
	assert.Equal(t, "🐳🔥", Icon(&w))

	d := dump()
	assert.Equal(t, LabelDumpToRetail, r.Label(&d))
	assert.Equal(t, "🔴", Icon(&d))

	d.Flow.TopBuyerCode = "BK"
	assert.Equal(t, LabelDistribution, r.Label(&d))

	n := contracts.ScanResult{Signal: contracts.Signal{Direction: contracts.DirectionNeutral}}
	assert.Equal(t, LabelNeutral, r.Label(&n))

	a := contracts.ScanResult{Signal: contracts.Signal{Direction: contracts.DirectionAccumulation}}
	assert.Equal(t, LabelAccumulation, r.Label(&a))
}

func TestRenderMorning(t *testing.T) {
	r := testRenderer(t)
	rep := &contracts.Report{
		RunID:    "0f8c2d51-aaaa-bbbb-cccc-000000000000",
		Window:   contracts.TimeWindow{TargetDate: time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), Mode: contracts.ModeMorning},
		Status:   contracts.StatusOK,
		Plan:     []contracts.ScanResult{whale()},
		Scanned:  15,
		Included: 12,
		Skipped:  3,
	}

	msg := r.Render(rep)

	assert.True(t, strings.HasPrefix(msg, "📡 <b>SMART BANDAR DETECTOR</b>\n📅 2024-01-16 | 🌅 Morning Plan\n"))
	assert.Contains(t, msg, "RENCANA PAGI")
	assert.Contains(t, msg, "<b>BBCA</b> 🐳🔥")
	assert.Contains(t, msg, "💰 Net: <b>+1.5 M</b>")
	assert.Contains(t, msg, "🛒 Buy: <b>BK-JP Morgan</b>")
	assert.Contains(t, msg, "   Avg: 9150")
	assert.Contains(t, msg, "📦 Sell: YP-Mirae Asset")
	assert.Contains(t, msg, "📊 🔥 PAUS MASUK | Skor 9")
	assert.Contains(t, msg, "🏷 cohort-in, whale-eats-retail")
	assert.Contains(t, msg, "Scan 15 | Masuk 12 | Skip 3 | #0f8c2d51")
	assert.NotContains(t, msg, "WINNERS")
}

func TestRenderAfternoon(t *testing.T) {
	r := testRenderer(t)
	w := whale()
	rep := &contracts.Report{
		Window:    contracts.TimeWindow{Mode: contracts.ModeAfternoon},
		Status:    contracts.StatusOK,
		Winners:   []contracts.ScanResult{w},
		Losers:    []contracts.ScanResult{dump()},
		Highlight: &w,
	}

	msg := r.Render(rep)

	assert.Contains(t, msg, "🌇 Afternoon Review")
	assert.Contains(t, msg, "🏆 <b>WINNERS</b>")
	assert.Contains(t, msg, "🔻 <b>LOSERS</b>")
	assert.Contains(t, msg, "🔴 <b>GOTO</b> -350 jt | ⚠️ DUMP KE RITEL | Skor -5")
	assert.Contains(t, msg, "🔍 <b>DEEP DIVE</b>")
	assert.Contains(t, msg, "📈 Harga: 9100 (+1.25%) | VWAP 9000 | fair")
	assert.Contains(t, msg, "👥 institutional: +2.0 M")
	assert.Contains(t, msg, "👥 retail: -1.0 M")
}

func TestRenderDegradedDeepDive(t *testing.T) {
	r := testRenderer(t)
	w := whale()
	w.Price = contracts.PriceContext{ReferencePrice: 9150, CurrentPrice: 9150, Position: contracts.PositionFair, Degraded: true}
	w.Lookback = &contracts.Signal{Score: 4, Direction: contracts.DirectionAccumulation}

	msg := r.Render(&contracts.Report{
		Window:    contracts.TimeWindow{Mode: contracts.ModeAfternoon},
		Winners:   []contracts.ScanResult{w},
		Highlight: &w,
	})

	assert.Contains(t, msg, "📈 Harga: n/a (avg top buyer 9150)")
	assert.Contains(t, msg, "🕰 Lookback: Akumulasi (skor 4)")
}

func TestRenderNoResults(t *testing.T) {
	r := testRenderer(t)

	msg := r.Render(&contracts.Report{
		Window:       contracts.TimeWindow{Mode: contracts.ModeAfternoon},
		Status:       contracts.StatusNoSignificantResults,
		Unauthorized: true,
	})
	assert.Contains(t, msg, MessageNoResults)
	assert.Contains(t, msg, MessageUnauthorized)

	msg = r.Render(&contracts.Report{Status: contracts.StatusEmptyUniverse})
	assert.Contains(t, msg, MessageEmptyUniverse)
}

func TestRenderEscapesHTML(t *testing.T) {
	r := NewRenderer(Config{Title: "A&B", Brokers: map[string]string{"BK": "<JP> Morgan"}})
	w := whale()

	msg := r.Render(&contracts.Report{
		Window: contracts.TimeWindow{Mode: contracts.ModeMorning},
		Plan:   []contracts.ScanResult{w},
	})

	assert.Contains(t, msg, "<b>A&amp;B</b>")
	assert.Contains(t, msg, "BK-&lt;JP&gt; Morgan")
	assert.NotContains(t, msg, "🏷", "tags hidden unless enabled")
}

func TestRenderBlocksSurviveChunking(t *testing.T) {
	r := testRenderer(t)

	winners := make([]contracts.ScanResult, 40)
	for i := range winners {
		w := whale()
		w.Ticker = fmt.Sprintf("T%03d", i)
		winners[i] = w
	}
	rep := &contracts.Report{
		Window:    contracts.TimeWindow{Mode: contracts.ModeAfternoon},
		Status:    contracts.StatusOK,
		Winners:   winners,
		Losers:    []contracts.ScanResult{dump()},
		Highlight: &winners[0],
	}

	msg := r.Render(rep)
	assert.Equal(t, len(winners)+1, strings.Count(msg, blockRule+BlockSeparator))

	chunks := telegram.Split(msg, telegram.DefaultMaxChunk)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, msg, strings.Join(chunks, ""))

	for i, c := range chunks {
		// a block opens with its net line and closes with the rule
		assert.Equal(t, strings.Count(c, "💰 Net:"), strings.Count(c, blockRule), "chunk %d splits a block", i)
	}
}
