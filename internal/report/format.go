package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// FormatMoney renders IDR amounts: 1.5 M (miliar), 350 jt (juta), or the integer
func FormatMoney(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1f M", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.0f jt", v/1_000_000)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatSignedMoney prefixes positive amounts with +
func FormatSignedMoney(v float64) string {
	if v > 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// BrokerDisplay renders "CODE-First Two" from the broker directory
func BrokerDisplay(code string, directory map[string]string) string {
	if code == contracts.NoBroker {
		return "-"
	}

	name := directory[code]
	if name == "" {
		return code
	}

	words := strings.Fields(name)
	if len(words) > 2 {
		words = words[:2]
	}
	return code + "-" + strings.Join(words, " ")
}

// FormatPrice renders a price without decimals
func FormatPrice(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
