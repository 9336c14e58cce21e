package strategyconfig

import (
	"github.com/nicholaslie90/stck-scanner/internal/contracts"
	"github.com/nicholaslie90/stck-scanner/internal/s2_signals"
)

// Reference cohorts
var (
	referenceInstitutional = []string{
		"BK", "ZP", "AK", "RX", "KZ", "CS", "DX", "BB",
		"YU", "LG", "AI", "MG", "CD", "RF", "IF", "DH",
	}
	referenceRetail = []string{
		"YP", "PD", "XC", "XL", "SQ", "KK", "NI", "CC", "GR", "DR", "YJ",
	}
)

// Fallback universe when the screener fails
var referenceStatic = []string{
	"BBRI", "BBCA", "BMRI", "ADRO", "TLKM", "ASII",
	"GOTO", "ANTM", "BRMS", "BUMI", "PANI", "BREN",
}

var referenceBrokers = []Broker{
	// retail
	{"YP", "Mirae Asset"},
	{"PD", "Indo Premier"},
	{"CC", "Mandiri Sek"},
	{"NI", "BNI Sek"},
	{"XC", "Ajaib"},
	{"KK", "Phillip"},
	{"SQ", "BCA Sekuritas"},
	{"XL", "Stockbit"},
	{"GR", "Panin"},
	{"OD", "BRI Danareksa"},
	{"AZ", "Sucor"},
	{"EP", "MNC Sek"},
	{"DR", "RHB"},
	{"YJ", "Lautandhana"},
	{"CP", "Valbury"},
	{"HP", "Henan Putihrai"},

	// institutional / foreign
	{"BK", "JP Morgan"},
	{"ZP", "Maybank"},
	{"AK", "UBS"},
	{"RX", "Macquarie"},
	{"KZ", "CLSA"},
	{"CS", "Credit Suisse"},
	{"DX", "Bahana"},
	{"BB", "Verdhana"},
	{"YU", "CGS CIMB"},
	{"LG", "Trimegah"},
	{"AI", "UOB Kay Hian"},
	{"MG", "Semesta Indovest"},
	{"CD", "Mega Capital"},
	{"RF", "Buana Capital"},
	{"IF", "Samuel"},
	{"DH", "Sinarmas"},
	{"XZ", "Trimegah (Retail)"},
}

// Default returns the reference strategy
func Default() *Config {
	cfg := &Config{
		Cohorts: []contracts.Cohort{
			{Name: "institutional", Role: contracts.RoleInstitutional, Codes: append([]string(nil), referenceInstitutional...)},
			{Name: "retail", Role: contracts.RoleRetail, Codes: append([]string(nil), referenceRetail...)},
		},
		Brokers:      append([]Broker(nil), referenceBrokers...),
		Scoring:      s2_signals.DefaultScoringConfig(),
		PriceContext: s2_signals.DefaultPriceContextConfig(),
		Universe: UniverseConfig{
			Static: append([]string(nil), referenceStatic...),
		},
	}

	applyDefaults(cfg)
	return cfg
}
