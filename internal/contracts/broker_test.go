package contracts

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCohorts() []Cohort {
	return []Cohort{
		{Name: "institutional", Role: RoleInstitutional, Codes: []string{"BK", "ZP", "AK"}},
		{Name: "foreign-custody", Role: RoleInstitutional, Codes: []string{"RX"}},
		{Name: "retail", Role: RoleRetail, Codes: []string{"YP", "pd"}},
	}
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BBCA", "BBCA"},
		{"bbca", "BBCA"},
		{"IDX:BBRI", "BBRI"},
		{" tlkm.jk ", "TLKM"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTicker(tt.in))
		})
	}
}

func TestNewCohortSet(t *testing.T) {
	set, err := NewCohortSet(testCohorts())
	require.NoError(t, err)

	c, ok := set.Lookup("PD")
	require.True(t, ok)
	assert.Equal(t, "retail", c.Name)

	_, ok = set.Lookup("XX")
	assert.False(t, ok)

	assert.True(t, set.HasRole("rx", RoleInstitutional))
	assert.False(t, set.HasRole("YP", RoleInstitutional))
	assert.False(t, set.HasRole(NoBroker, RoleRetail))
	assert.Len(t, set.Cohorts(), 3)
	assert.Equal(t, []string{"AK", "BK", "PD", "RX", "YP", "ZP"}, set.Codes())
}

func TestNewCohortSetRejectsOverlap(t *testing.T) {
	cohorts := testCohorts()
	cohorts[2].Codes = append(cohorts[2].Codes, "BK")

	_, err := NewCohortSet(cohorts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BK")
}

func TestNewCohortSetRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		cohorts []Cohort
	}{
		{"missing name", []Cohort{{Role: RoleRetail, Codes: []string{"YP"}}}},
		{"bad role", []Cohort{{Name: "x", Role: "whale", Codes: []string{"YP"}}}},
		{"duplicate name", []Cohort{{Name: "x", Role: RoleRetail}, {Name: "x", Role: RoleOther}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCohortSet(tt.cohorts)
			assert.Error(t, err)
		})
	}
}

func TestRoleNetSumsCohortsOfRole(t *testing.T) {
	set, err := NewCohortSet(testCohorts())
	require.NoError(t, err)

	flow := &FlowSummary{CohortNetValues: map[string]float64{
		"institutional":   7e8,
		"foreign-custody": 5e8,
		"retail":          -2e8,
	}}

	assert.InDelta(t, 1.2e9, set.RoleNet(flow, RoleInstitutional), 1e-3)
	assert.InDelta(t, -2e8, set.RoleNet(flow, RoleRetail), 1e-3)
	assert.Zero(t, set.RoleNet(flow, RoleOther))
}

func TestSignalTags(t *testing.T) {
	var s Signal
	s.AddTag(TagCohortIn)
	s.AddTag(TagCohortOut)
	s.AddTag(TagCohortIn)

	assert.Equal(t, []string{TagCohortIn, TagCohortOut}, s.Tags)
	assert.True(t, s.HasTag(TagCohortOut))
	assert.False(t, s.HasTag(TagWhaleEatsRetail))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in       string
		want     Mode
		forced   bool
		hasError bool
	}{
		{"", "", false, false},
		{"auto", "", false, false},
		{"morning", ModeMorning, true, false},
		{"SORE", ModeAfternoon, true, false},
		{"evening", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, forced, err := ParseMode(tt.in)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.forced, forced)
		})
	}
}

func TestDateRange(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	single := DateRange{From: day, To: day}
	assert.True(t, single.IsSingleDay())
	assert.Equal(t, "2024-01-15", single.String())

	span := DateRange{From: day.AddDate(0, 0, -90), To: day}
	assert.False(t, span.IsSingleDay())
	assert.Equal(t, "2023-10-17~2024-01-15", span.String())

	w := TimeWindow{TargetDate: day, LookbackStart: day.AddDate(0, 0, -90), Mode: ModeMorning}
	assert.True(t, w.TargetRange().IsSingleDay())
	assert.Equal(t, span, w.LookbackRange())
}

func TestStageShortName(t *testing.T) {
	for i, stage := range AllStages() {
		assert.Equal(t, fmt.Sprintf("S%d", i), stage.ShortName())
		assert.True(t, IsValidStage(stage.String()))
	}
	assert.False(t, IsValidStage("S9_NOPE"))
}
