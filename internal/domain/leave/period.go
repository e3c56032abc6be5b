package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Period policy: pure date arithmetic over a company's Settings. All
// dates are UTC midnight; callers pass "today" explicitly so jobs and
// tests control the clock.

// clampDay returns a date in (year, month), lowering day to the last
// valid day of the month when needed (Feb 30 -> Feb 28/29).
func clampDay(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PeriodStart returns the first day of the reference period for year.
func (s Settings) PeriodStart(year int) time.Time {
	switch s.PeriodType {
	case PeriodCalendar:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	case PeriodLegal:
		return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC)
	default:
		return clampDay(year, time.Month(s.CustomPeriodStartMon), s.CustomPeriodStartDay)
	}
}

// PeriodEnd returns the last day of the reference period for year.
func (s Settings) PeriodEnd(year int) time.Time {
	switch s.PeriodType {
	case PeriodCalendar:
		return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	case PeriodLegal:
		return time.Date(year+1, time.May, 31, 0, 0, 0, 0, time.UTC)
	default:
		// One year after the start, minus a day. Recomputed from the
		// configured day/month so a clamped start (Feb 30) still ends
		// the day before next year's clamped start.
		next := clampDay(year+1, time.Month(s.CustomPeriodStartMon), s.CustomPeriodStartDay)
		return next.AddDate(0, 0, -1)
	}
}

// CurrentPeriodYear maps today to the reference year whose period
// contains it.
func (s Settings) CurrentPeriodYear(today time.Time) int {
	switch s.PeriodType {
	case PeriodCalendar:
		return today.Year()
	case PeriodLegal:
		if today.Month() >= time.June {
			return today.Year()
		}
		return today.Year() - 1
	default:
		if !today.Before(s.PeriodStart(today.Year())) {
			return today.Year()
		}
		return today.Year() - 1
	}
}

// CarryoverExpiryDate is the deadline for consuming days carried over
// out of periodYear: period end plus the family's deadline months, with
// end-of-month clamping (May 31 + 1 month -> Jun 30).
func (s Settings) CarryoverExpiryDate(periodYear int, leaveTypeCode string) time.Time {
	end := s.PeriodEnd(periodYear)

	months := s.CPCarryoverDeadlineMonths
	if leaveTypeCode == CodeRTT {
		months = s.RTTCarryoverDeadlineMonths
	}

	month := int(end.Month()) + months
	year := end.Year()
	for month > 12 {
		month -= 12
		year++
	}
	return clampDay(year, time.Month(month), end.Day())
}

// MaxCarryover returns the cap on days carried into a new period for the
// leave type's family, zero when carryover is disabled.
func (s Settings) MaxCarryover(leaveTypeCode string) decimal.Decimal {
	if leaveTypeCode == CodeRTT {
		if !s.RTTCarryoverEnabled {
			return decimal.Zero
		}
		return s.RTTCarryoverMaxDays
	}
	if !s.CPCarryoverEnabled {
		return decimal.Zero
	}
	return s.CPCarryoverMaxDays
}

// PeriodLabel renders a period year for dashboards and exports.
func (s Settings) PeriodLabel(year int) string {
	if s.PeriodType == PeriodCalendar {
		return fmt.Sprintf("Année %d", year)
	}
	start := s.PeriodStart(year)
	end := s.PeriodEnd(year)
	return fmt.Sprintf("%s %d - %s %d",
		frenchMonths[start.Month()], start.Year(),
		frenchMonths[end.Month()], end.Year())
}

var frenchMonths = map[time.Month]string{
	time.January:   "Janvier",
	time.February:  "Février",
	time.March:     "Mars",
	time.April:     "Avril",
	time.May:       "Mai",
	time.June:      "Juin",
	time.July:      "Juillet",
	time.August:    "Août",
	time.September: "Septembre",
	time.October:   "Octobre",
	time.November:  "Novembre",
	time.December:  "Décembre",
}
