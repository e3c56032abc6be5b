package leave

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchAutoApprovalFirstMatchWins(t *testing.T) {
	max2 := decimal.RequireFromString("2")
	max5 := decimal.RequireFromString("5")
	rules := []AutoApprovalRule{
		{Name: "short rtt", LeaveTypeID: "lt-rtt", MaxDays: &max2, Priority: 20, IsActive: true},
		{Name: "any short", MaxDays: &max5, Priority: 10, IsActive: true},
	}
	today := date(2025, time.June, 1)

	r := MatchAutoApproval(rules, RuleSubject{LeaveTypeID: "lt-rtt", Days: d("1"), StartDate: date(2025, time.June, 20)}, today)
	require.NotNil(t, r)
	assert.Equal(t, "short rtt", r.Name)

	// Over the first rule's cap, falls through to the broader one.
	r = MatchAutoApproval(rules, RuleSubject{LeaveTypeID: "lt-rtt", Days: d("3"), StartDate: date(2025, time.June, 20)}, today)
	require.NotNil(t, r)
	assert.Equal(t, "any short", r.Name)

	assert.Nil(t, MatchAutoApproval(rules, RuleSubject{LeaveTypeID: "lt-cp", Days: d("10")}, today))
}

func TestMatchAutoApprovalAdvanceNotice(t *testing.T) {
	rules := []AutoApprovalRule{
		{Name: "planned ahead", MinAdvanceDays: 14, Priority: 1, IsActive: true},
	}
	today := date(2025, time.June, 1)

	assert.Nil(t, MatchAutoApproval(rules, RuleSubject{StartDate: date(2025, time.June, 10)}, today))
	assert.NotNil(t, MatchAutoApproval(rules, RuleSubject{StartDate: date(2025, time.June, 15)}, today))
}

func TestMatchAutoApprovalFilters(t *testing.T) {
	rules := []AutoApprovalRule{
		{Name: "senior team a", RoleIDs: []string{"role-mgr"}, TeamIDs: []string{"team-a"}, Priority: 1, IsActive: true},
		{Name: "disabled", Priority: 99, IsActive: false},
	}
	today := date(2025, time.June, 1)

	r := MatchAutoApproval(rules, RuleSubject{RoleID: "role-mgr", TeamID: "team-a"}, today)
	require.NotNil(t, r)
	assert.Equal(t, "senior team a", r.Name)

	assert.Nil(t, MatchAutoApproval(rules, RuleSubject{RoleID: "role-emp", TeamID: "team-a"}, today))
	assert.Nil(t, MatchAutoApproval(rules, RuleSubject{RoleID: "role-mgr", TeamID: "team-b"}, today))
}
