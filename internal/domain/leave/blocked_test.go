package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBlockedPeriodsHard(t *testing.T) {
	periods := []BlockedPeriod{
		{Name: "Clôture annuelle", StartDate: date(2025, time.December, 20), EndDate: date(2025, time.December, 31), BlockType: BlockHard, IsActive: true},
	}

	chk := CheckBlockedPeriods(periods, date(2025, time.December, 29), date(2026, time.January, 2), "team-a", "lt-cp")
	assert.True(t, chk.Blocked)
	require.NotNil(t, chk.Matched)
	assert.Equal(t, "Clôture annuelle", chk.Matched.Name)

	chk = CheckBlockedPeriods(periods, date(2026, time.January, 5), date(2026, time.January, 9), "team-a", "lt-cp")
	assert.False(t, chk.Blocked)
}

func TestCheckBlockedPeriodsSoftWarns(t *testing.T) {
	periods := []BlockedPeriod{
		{Name: "Rush été", StartDate: date(2025, time.July, 1), EndDate: date(2025, time.July, 15), BlockType: BlockSoft, IsActive: true},
	}

	chk := CheckBlockedPeriods(periods, date(2025, time.July, 7), date(2025, time.July, 9), "", "")
	assert.False(t, chk.Blocked)
	assert.Equal(t, []string{"Rush été"}, chk.Warnings)
}

func TestCheckBlockedPeriodsFilters(t *testing.T) {
	periods := []BlockedPeriod{
		{Name: "Inventaire", StartDate: date(2025, time.July, 1), EndDate: date(2025, time.July, 5), BlockType: BlockHard, TeamIDs: []string{"team-logistics"}, IsActive: true},
		{Name: "Gel RTT", StartDate: date(2025, time.July, 1), EndDate: date(2025, time.July, 31), BlockType: BlockHard, LeaveTypeIDs: []string{"lt-rtt"}, IsActive: true},
		{Name: "Ancien gel", StartDate: date(2025, time.July, 1), EndDate: date(2025, time.July, 31), BlockType: BlockHard, IsActive: false},
	}

	// Wrong team and wrong type: only the inactive rule would match.
	chk := CheckBlockedPeriods(periods, date(2025, time.July, 2), date(2025, time.July, 3), "team-sales", "lt-cp")
	assert.False(t, chk.Blocked)

	chk = CheckBlockedPeriods(periods, date(2025, time.July, 2), date(2025, time.July, 3), "team-logistics", "lt-cp")
	assert.True(t, chk.Blocked)

	chk = CheckBlockedPeriods(periods, date(2025, time.July, 20), date(2025, time.July, 21), "team-sales", "lt-rtt")
	assert.True(t, chk.Blocked)
}
