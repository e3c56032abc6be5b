package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

var half = decimal.RequireFromString("0.5")

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// CountRequestDays counts the business days between start and end
// inclusive, excluding weekends. A half-day flag on the start or end
// date removes half a day, but only when that date is itself a business
// day. Returns zero when end precedes start.
func CountRequestDays(start, end time.Time, startHalf, endHalf bool) decimal.Decimal {
	if end.Before(start) {
		return decimal.Zero
	}

	days := decimal.Zero
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !isWeekend(d) {
			days = days.Add(decimal.NewFromInt(1))
		}
	}

	if startHalf && !isWeekend(start) {
		days = days.Sub(half)
	}
	// A one-day half-day request counts 0.5, not 0.
	if endHalf && !isWeekend(end) && !end.Equal(start) {
		days = days.Sub(half)
	}

	if days.IsNegative() {
		return decimal.Zero
	}
	return days
}

// Overlaps reports whether the two inclusive date ranges intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}
