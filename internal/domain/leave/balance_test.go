package leave

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testBalance() Balance {
	exp := date(2025, time.August, 31)
	return Balance{
		InitialBalance:       d("25"),
		Adjusted:             d("1"),
		Used:                 d("4"),
		Pending:              d("2"),
		CarriedOver:          d("5"),
		CarriedOverUsed:      d("1.5"),
		CarriedOverExpiresAt: &exp,
	}
}

func TestAvailable(t *testing.T) {
	b := testBalance()
	today := date(2025, time.July, 1)

	// 25 + 1 - 4 - 2 + (5 - 1.5)
	assert.True(t, b.Available(today).Equal(d("23.5")))
	assert.True(t, b.CarriedOverAvailable(today).Equal(d("3.5")))
	assert.True(t, b.AvailableCurrentYear().Equal(d("20")))
}

func TestAvailableExpiredCarryover(t *testing.T) {
	b := testBalance()
	today := date(2025, time.September, 1)

	assert.True(t, b.CarriedOverAvailable(today).IsZero())
	assert.True(t, b.Available(today).Equal(d("20")))

	// Expiry day itself still counts.
	onDeadline := date(2025, time.August, 31)
	assert.True(t, b.CarriedOverAvailable(onDeadline).Equal(d("3.5")))
}

func TestUseDaysDrawsCarryoverFirst(t *testing.T) {
	b := testBalance()
	today := date(2025, time.July, 1)

	carried, current := b.UseDays(d("5"), today)

	assert.True(t, carried.Equal(d("3.5")))
	assert.True(t, current.Equal(d("1.5")))
	assert.True(t, b.CarriedOverUsed.Equal(d("5")))
	assert.True(t, b.Used.Equal(d("5.5")))
}

func TestUseDaysWithinCarryover(t *testing.T) {
	b := testBalance()
	today := date(2025, time.July, 1)

	carried, current := b.UseDays(d("2"), today)

	assert.True(t, carried.Equal(d("2")))
	assert.True(t, current.IsZero())
	assert.True(t, b.Used.Equal(d("4")))
}

func TestUseDaysSkipsExpiredCarryover(t *testing.T) {
	b := testBalance()
	today := date(2025, time.September, 15)

	carried, current := b.UseDays(d("2"), today)

	assert.True(t, carried.IsZero())
	assert.True(t, current.Equal(d("2")))
	assert.True(t, b.Used.Equal(d("6")))
}

func TestRestoreReversesCurrentYearFirst(t *testing.T) {
	b := testBalance() // Used=4, CarriedOverUsed=1.5

	b.Restore(d("5"))

	assert.True(t, b.Used.IsZero())
	assert.True(t, b.CarriedOverUsed.Equal(d("0.5")))
}

func TestRestoreClampsToConsumed(t *testing.T) {
	b := testBalance()

	b.Restore(d("100"))

	assert.True(t, b.Used.IsZero())
	assert.True(t, b.CarriedOverUsed.IsZero())
}

func TestDaysExpiringSoon(t *testing.T) {
	b := testBalance() // 3.5 carryover left, expires Aug 31 2025

	assert.True(t, b.DaysExpiringSoon(date(2025, time.August, 10), 30).Equal(d("3.5")))

	// Deadline beyond the window.
	assert.True(t, b.DaysExpiringSoon(date(2025, time.June, 1), 30).IsZero())

	// Already expired.
	assert.True(t, b.DaysExpiringSoon(date(2025, time.September, 5), 30).IsZero())

	// No carryover deadline at all.
	b.CarriedOverExpiresAt = nil
	assert.True(t, b.DaysExpiringSoon(date(2025, time.August, 10), 30).IsZero())
}
