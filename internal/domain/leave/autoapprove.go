package leave

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// RuleSubject is the request-side data an auto-approval rule matches
// against.
type RuleSubject struct {
	LeaveTypeID string
	Days        decimal.Decimal
	StartDate   time.Time
	RoleID      string
	TeamID      string
}

// MatchAutoApproval returns the first active rule matching the subject,
// or nil when none applies. Rules must already be sorted by priority
// descending (the store orders them that way).
func MatchAutoApproval(rules []AutoApprovalRule, sub RuleSubject, today time.Time) *AutoApprovalRule {
	for i := range rules {
		r := &rules[i]
		if !r.IsActive {
			continue
		}
		if r.LeaveTypeID != "" && r.LeaveTypeID != sub.LeaveTypeID {
			continue
		}
		if r.MaxDays != nil && sub.Days.GreaterThan(*r.MaxDays) {
			continue
		}
		if r.MinAdvanceDays > 0 {
			notice := int(sub.StartDate.Sub(today).Hours() / 24)
			if notice < r.MinAdvanceDays {
				continue
			}
		}
		if len(r.RoleIDs) > 0 && !slices.Contains(r.RoleIDs, sub.RoleID) {
			continue
		}
		if len(r.TeamIDs) > 0 && !slices.Contains(r.TeamIDs, sub.TeamID) {
			continue
		}
		return r
	}
	return nil
}
