package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// Status labels
const (
	LabelAccumulation    = "Akumulasi"
	LabelDistribution    = "Distribusi"
	LabelNeutral         = "Netral"
	LabelWhaleEatsRetail = "🔥 PAUS MASUK"
	LabelDumpToRetail    = "⚠️ DUMP KE RITEL"
)

// Messages for runs without results
const (
	MessageNoResults     = "⚠️ Tidak ada akumulasi signifikan hari ini."
	MessageEmptyUniverse = "⚠️ Universe kosong, tidak ada saham untuk dipindai."
	MessageUnauthorized  = "⛔ API key ditolak, hasil parsial."
)

const (
	headerRule = "========================="
	blockRule  = "--------------------"
)

// BlockSeparator terminates a unit that must not be split across messages
const BlockSeparator = "\n\n"

// Config controls rendering
type Config struct {
	Title    string
	ShowTags bool
	Brokers  map[string]string // code → firm name
	Cohorts  *contracts.CohortSet
}

// Renderer turns a Report into a Telegram HTML message
// ⭐ SSOT: S4 message layout lives here only
type Renderer struct {
	config Config
}

// NewRenderer creates a new renderer
func NewRenderer(config Config) *Renderer {
	if config.Title == "" {
		config.Title = "SMART BANDAR DETECTOR"
	}
	return &Renderer{config: config}
}

// Render returns the full message (chunking is the notifier's job)
// Every result block ends with BlockSeparator so a chunker can keep it whole.
func (r *Renderer) Render(rep *contracts.Report) string {
	var b strings.Builder
	r.writeHeader(&b, rep)

	switch {
	case rep.Status == contracts.StatusEmptyUniverse:
		b.WriteString(MessageEmptyUniverse + BlockSeparator)
	case !rep.HasResults():
		b.WriteString(MessageNoResults + BlockSeparator)
	case rep.Window.Mode == contracts.ModeMorning:
		fmt.Fprintf(&b, "🎯 <b>RENCANA PAGI</b> (Top %d)\n", len(rep.Plan))
		for i := range rep.Plan {
			r.writeBlock(&b, &rep.Plan[i])
		}
		if len(rep.Plan) == 0 {
			b.WriteString("\n")
		}
	default:
		if len(rep.Winners) > 0 {
			b.WriteString("🏆 <b>WINNERS</b>\n")
			for i := range rep.Winners {
				r.writeBlock(&b, &rep.Winners[i])
			}
		}
		if len(rep.Losers) > 0 {
			b.WriteString("🔻 <b>LOSERS</b>\n")
			for i := range rep.Losers {
				r.writeLoser(&b, &rep.Losers[i])
			}
			b.WriteString("\n")
		}
		if rep.Highlight != nil {
			b.WriteString("🔍 <b>DEEP DIVE</b>\n")
			r.writeDeepDive(&b, rep.Highlight)
		}
	}

	r.writeFooter(&b, rep)
	return b.String()
}

func (r *Renderer) writeHeader(b *strings.Builder, rep *contracts.Report) {
	mode := "🌇 Afternoon Review"
	if rep.Window.Mode == contracts.ModeMorning {
		mode = "🌅 Morning Plan"
	}

	fmt.Fprintf(b, "📡 <b>%s</b>\n", html.EscapeString(r.config.Title))
	fmt.Fprintf(b, "📅 %s | %s\n", rep.Window.TargetDate.Format(contracts.DateLayout), mode)
	b.WriteString(headerRule + "\n")
	if rep.Unauthorized {
		b.WriteString(MessageUnauthorized + "\n")
	}
	b.WriteString("\n")
}

func (r *Renderer) writeBlock(b *strings.Builder, res *contracts.ScanResult) {
	r.writeBlockLines(b, res)
	b.WriteString(blockRule + BlockSeparator)
}

func (r *Renderer) writeBlockLines(b *strings.Builder, res *contracts.ScanResult) {
	fmt.Fprintf(b, "<b>%s</b> %s\n", html.EscapeString(res.Ticker), Icon(res))
	fmt.Fprintf(b, "💰 Net: <b>%s</b>\n", FormatSignedMoney(res.Flow.NetValue))
	fmt.Fprintf(b, "🛒 Buy: <b>%s</b>\n", r.broker(res.Flow.TopBuyerCode))
	if res.Flow.HasTopBuyer() {
		fmt.Fprintf(b, "   Avg: %s\n", FormatPrice(res.Flow.TopBuyerAvgPrice))
	}
	fmt.Fprintf(b, "📦 Sell: %s\n", r.broker(res.Flow.TopSellerCode))
	fmt.Fprintf(b, "📊 %s | Skor %d\n", r.Label(res), res.Signal.Score)
	if r.config.ShowTags && len(res.Signal.Tags) > 0 {
		fmt.Fprintf(b, "🏷 %s\n", strings.Join(res.Signal.Tags, ", "))
	}
}

func (r *Renderer) writeLoser(b *strings.Builder, res *contracts.ScanResult) {
	fmt.Fprintf(b, "%s <b>%s</b> %s | %s | Skor %d\n",
		Icon(res),
		html.EscapeString(res.Ticker),
		FormatSignedMoney(res.Flow.NetValue),
		r.Label(res),
		res.Signal.Score,
	)
}

func (r *Renderer) writeDeepDive(b *strings.Builder, res *contracts.ScanResult) {
	r.writeBlockLines(b, res)

	pc := res.Price
	if pc.Degraded {
		fmt.Fprintf(b, "📈 Harga: n/a (avg top buyer %s)\n", FormatPrice(pc.ReferencePrice))
	} else {
		fmt.Fprintf(b, "📈 Harga: %s (%+.2f%%) | VWAP %s | %s\n",
			FormatPrice(pc.CurrentPrice), pc.ChangePct, FormatPrice(pc.ReferencePrice), pc.Position)
	}

	if r.config.Cohorts != nil {
		for _, c := range r.config.Cohorts.Cohorts() {
			fmt.Fprintf(b, "👥 %s: %s\n", html.EscapeString(c.Name), FormatSignedMoney(res.Flow.CohortNetValues[c.Name]))
		}
	}

	if res.Lookback != nil {
		fmt.Fprintf(b, "🕰 Lookback: %s (skor %d)\n", directionLabel(res.Lookback.Direction), res.Lookback.Score)
	}
	b.WriteString(blockRule + BlockSeparator)
}

func (r *Renderer) writeFooter(b *strings.Builder, rep *contracts.Report) {
	fmt.Fprintf(b, "Scan %d | Masuk %d | Skip %d", rep.Scanned, rep.Included, rep.Skipped)
	if rep.RunID != "" {
		id := rep.RunID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(b, " | #%s", id)
	}
	b.WriteString("\n")
}

func (r *Renderer) broker(code string) string {
	return html.EscapeString(BrokerDisplay(code, r.config.Brokers))
}

// Label returns the Indonesian status label of a result
func (r *Renderer) Label(res *contracts.ScanResult) string {
	switch {
	case res.Signal.HasTag(contracts.TagWhaleEatsRetail):
		return LabelWhaleEatsRetail
	case res.Signal.Direction == contracts.DirectionDistribution &&
		r.config.Cohorts != nil &&
		r.config.Cohorts.HasRole(res.Flow.TopBuyerCode, contracts.RoleRetail):
		return LabelDumpToRetail
	default:
		return directionLabel(res.Signal.Direction)
	}
}

func directionLabel(d contracts.Direction) string {
	switch d {
	case contracts.DirectionAccumulation:
		return LabelAccumulation
	case contracts.DirectionDistribution:
		return LabelDistribution
	default:
		return LabelNeutral
	}
}

// Icon returns the result marker
func Icon(res *contracts.ScanResult) string {
	switch {
	case res.Signal.HasTag(contracts.TagWhaleEatsRetail):
		return "🐳🔥"
	case res.Signal.Direction == contracts.DirectionAccumulation:
		return "🟢"
	case res.Signal.Direction == contracts.DirectionDistribution:
		return "🔴"
	default:
		return "⚪"
	}
}
