package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger arithmetic. These methods are pure mutations of the in-memory
// Balance; persisting the result (and locking the row first) is the
// caller's job. None of them rejects over-consumption: availability and
// the negative-balance policy are checked at the create/approve gates,
// so the ledger itself stays mechanical.

// carryoverExpired reports whether the carryover pool is past its
// deadline as of today.
func (b Balance) carryoverExpired(today time.Time) bool {
	return b.CarriedOverExpiresAt != nil && today.After(*b.CarriedOverExpiresAt)
}

// CarriedOverAvailable is the unconsumed carryover still usable today.
func (b Balance) CarriedOverAvailable(today time.Time) decimal.Decimal {
	if b.carryoverExpired(today) {
		return decimal.Zero
	}
	avail := b.CarriedOver.Sub(b.CarriedOverUsed)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// Available is the total the employee can still request: current-year
// entitlement net of used and pending, plus live carryover.
func (b Balance) Available(today time.Time) decimal.Decimal {
	return b.InitialBalance.
		Add(b.Adjusted).
		Sub(b.Used).
		Sub(b.Pending).
		Add(b.CarriedOverAvailable(today))
}

// AvailableCurrentYear excludes carryover, floored at zero.
func (b Balance) AvailableCurrentYear() decimal.Decimal {
	avail := b.InitialBalance.Add(b.Adjusted).Sub(b.Used).Sub(b.Pending)
	if avail.IsNegative() {
		return decimal.Zero
	}
	return avail
}

// UseDays consumes n days FIFO: expiring carryover first, the remainder
// from the current-year pool. Returns how much each pool absorbed.
func (b *Balance) UseDays(n decimal.Decimal, today time.Time) (carriedUsed, currentUsed decimal.Decimal) {
	carriedUsed = decimal.Min(n, b.CarriedOverAvailable(today))
	currentUsed = n.Sub(carriedUsed)

	b.CarriedOverUsed = b.CarriedOverUsed.Add(carriedUsed)
	b.Used = b.Used.Add(currentUsed)
	return carriedUsed, currentUsed
}

// Restore gives n days back in reverse order: current-year first, then
// carryover, each clamped to what was actually consumed.
func (b *Balance) Restore(n decimal.Decimal) {
	fromUsed := decimal.Min(n, b.Used)
	b.Used = b.Used.Sub(fromUsed)

	remaining := n.Sub(fromUsed)
	fromCarried := decimal.Min(remaining, b.CarriedOverUsed)
	b.CarriedOverUsed = b.CarriedOverUsed.Sub(fromCarried)
}

// DaysExpiringSoon is the carryover at risk of being lost within the
// alert window. Zero once expired or when the deadline is beyond the
// window.
func (b Balance) DaysExpiringSoon(today time.Time, window int) decimal.Decimal {
	if b.CarriedOverExpiresAt == nil || b.carryoverExpired(today) {
		return decimal.Zero
	}
	limit := today.AddDate(0, 0, window)
	if b.CarriedOverExpiresAt.After(limit) {
		return decimal.Zero
	}
	return b.CarriedOverAvailable(today)
}
