package leave

import (
	"slices"
	"time"
)

// BlockCheck is the outcome of matching a date range against the
// company's blocked periods.
type BlockCheck struct {
	// Blocked is set when a hard block overlaps: the request must be
	// refused.
	Blocked bool
	// Warnings carries the names of overlapping soft blocks; the request
	// goes through with these attached to the response.
	Warnings []string
	// Matched is the hard block that refused the request, if any.
	Matched *BlockedPeriod
}

// CheckBlockedPeriods matches an employee's requested range against the
// active blocked periods. A period with team or leave-type filters only
// applies when the employee's team / the requested type is listed;
// empty filters apply to everyone.
func CheckBlockedPeriods(periods []BlockedPeriod, start, end time.Time, teamID, leaveTypeID string) BlockCheck {
	var out BlockCheck
	for i := range periods {
		p := &periods[i]
		if !p.IsActive {
			continue
		}
		if !Overlaps(start, end, p.StartDate, p.EndDate) {
			continue
		}
		if len(p.TeamIDs) > 0 && !slices.Contains(p.TeamIDs, teamID) {
			continue
		}
		if len(p.LeaveTypeIDs) > 0 && !slices.Contains(p.LeaveTypeIDs, leaveTypeID) {
			continue
		}
		if p.BlockType == BlockHard {
			out.Blocked = true
			out.Matched = p
			return out
		}
		out.Warnings = append(out.Warnings, p.Name)
	}
	return out
}
