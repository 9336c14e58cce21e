package s2_signals

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicholaslie90/stck-scanner/internal/contracts"
)

// testCohortSet mirrors the reference cohorts closely enough for scoring tests
func testCohortSet(t *testing.T) *contracts.CohortSet {
	t.Helper()

	set, err := contracts.NewCohortSet([]contracts.Cohort{
		{Name: "institutional", Role: contracts.RoleInstitutional, Codes: []string{"BK", "ZP", "AK", "RX", "KZ", "CS"}},
		{Name: "retail", Role: contracts.RoleRetail, Codes: []string{"YP", "PD", "XC", "XL", "KK", "CC"}},
	})
	require.NoError(t, err)
	return set
}

func tx(code string, value, avg float64) contracts.BrokerTransaction {
	return contracts.BrokerTransaction{BrokerCode: code, SignedValue: value, AvgPrice: avg}
}
