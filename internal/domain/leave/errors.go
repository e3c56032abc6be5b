package leave

import "errors"

var (
	// ErrInvalidState means the request is not in the status the
	// transition expects, including the case where a concurrent actor
	// won the status-conditional update first.
	ErrInvalidState = errors.New("invalid request state")

	ErrForbidden           = errors.New("forbidden")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrBlockedPeriod       = errors.New("period is blocked for leave requests")
	ErrInvalidDateRange    = errors.New("invalid date range")
	ErrStartDateInPast     = errors.New("start date is in the past")
	ErrJustificationNeeded = errors.New("justification required for this leave type")
	ErrMaxConsecutiveDays  = errors.New("exceeds maximum consecutive days for this leave type")
	ErrProtectedLeaveType  = errors.New("statutory leave type cannot be deactivated")
	ErrBalanceNotFound     = errors.New("leave balance not found")
	ErrCancelWindowClosed  = errors.New("approved leave already started and cannot be cancelled")
)
