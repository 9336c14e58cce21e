package s0_data

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// PayloadShape is the detected structure of a broker summary payload
type PayloadShape int

const (
	ShapeUnknown PayloadShape = iota
	ShapeTopN                 // top_buyers / top_sellers
	ShapeLedger               // broker_summary.brokers_buy / brokers_sell
)

// String returns the shape name for logging
func (s PayloadShape) String() string {
	switch s {
	case ShapeTopN:
		return "top_n"
	case ShapeLedger:
		return "ledger"
	default:
		return "unknown"
	}
}

// maxEnvelopeDepth bounds how many nested {"data": {...}} wrappers are unwrapped
const maxEnvelopeDepth = 2

// side describes where one list of entries lives and how its fields are named
type side struct {
	path      string
	valueKeys []string
	priceKeys []string
	isBuySide bool
}

var (
	topNSides = []side{
		{path: "top_buyers", valueKeys: []string{"value", "val"}, priceKeys: []string{"avg_price"}, isBuySide: true},
		{path: "top_sellers", valueKeys: []string{"value", "val"}, priceKeys: []string{"avg_price"}, isBuySide: false},
	}

	ledgerSides = []side{
		{path: "brokers_buy", valueKeys: []string{"bval", "value"}, priceKeys: []string{"avg_buy_price", "avg_price"}, isBuySide: true},
		{path: "brokers_sell", valueKeys: []string{"sval", "value"}, priceKeys: []string{"avg_sell_price", "avg_price"}, isBuySide: false},
	}

	codeKeys = []string{"code", "broker_code", "broker"}
)

// DetectShape classifies a raw payload by structure
func DetectShape(raw []byte) PayloadShape {
	shape, _ := detect(raw)
	return shape
}

// NormalizeBrokerPayload converts any supported broker summary payload
// into canonical transactions. Buy entries are positive, sell entries negative.
// Absent or malformed input yields an empty slice; it never fails.
// ⭐ SSOT: the only place that understands upstream broker payload layouts
func NormalizeBrokerPayload(raw []byte) []contracts.BrokerTransaction {
	shape, root := detect(raw)

	var sides []side
	switch shape {
	case ShapeTopN:
		sides = topNSides
	case ShapeLedger:
		sides = ledgerSides
	default:
		return []contracts.BrokerTransaction{}
	}

	txs := make([]contracts.BrokerTransaction, 0)
	for _, sd := range sides {
		root.Get(sd.path).ForEach(func(_, entry gjson.Result) bool {
			if tx, ok := parseEntry(entry, sd); ok {
				txs = append(txs, tx)
			}
			return true
		})
	}

	return txs
}

// detect unwraps the envelope and returns the shape and the node holding the lists
func detect(raw []byte) (PayloadShape, gjson.Result) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return ShapeUnknown, gjson.Result{}
	}

	root := gjson.ParseBytes(raw)
	for i := 0; i < maxEnvelopeDepth; i++ {
		data := root.Get("data")
		if !data.IsObject() {
			break
		}
		root = data
	}

	if !root.IsObject() {
		return ShapeUnknown, gjson.Result{}
	}

	if root.Get("top_buyers").IsArray() || root.Get("top_sellers").IsArray() {
		return ShapeTopN, root
	}

	ledger := root.Get("broker_summary")
	if !ledger.IsObject() {
		// ledger lists directly under the envelope
		ledger = root
	}
	if ledger.Get("brokers_buy").IsArray() || ledger.Get("brokers_sell").IsArray() {
		return ShapeLedger, ledger
	}

	return ShapeUnknown, gjson.Result{}
}

// parseEntry extracts one transaction; entries without a broker code are dropped
func parseEntry(entry gjson.Result, sd side) (contracts.BrokerTransaction, bool) {
	if !entry.IsObject() {
		return contracts.BrokerTransaction{}, false
	}

	code := strings.ToUpper(strings.TrimSpace(firstString(entry, codeKeys)))
	if code == "" {
		return contracts.BrokerTransaction{}, false
	}

	value := math.Abs(firstNumber(entry, sd.valueKeys))
	if !sd.isBuySide {
		value = -value
	}

	return contracts.BrokerTransaction{
		BrokerCode:  code,
		SignedValue: value,
		AvgPrice:    math.Abs(firstNumber(entry, sd.priceKeys)),
	}, true
}

func firstString(entry gjson.Result, keys []string) string {
	for _, k := range keys {
		if v := entry.Get(k); v.Exists() && v.Type == gjson.String {
			return v.Str
		}
	}
	return ""
}

// firstNumber reads the first present key as a number; numeric strings are accepted,
// anything else is 0
func firstNumber(entry gjson.Result, keys []string) float64 {
	for _, k := range keys {
		v := entry.Get(k)
		if !v.Exists() {
			continue
		}
		return toNumber(v)
	}
	return 0
}

func toNumber(v gjson.Result) float64 {
	var f float64
	switch v.Type {
	case gjson.Number:
		f = v.Num
	case gjson.String:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
