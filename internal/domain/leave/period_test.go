package leave

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func legalSettings() Settings {
	s := DefaultSettings("co-1")
	s.PeriodType = PeriodLegal
	return s
}

func TestPeriodBoundsCalendar(t *testing.T) {
	s := legalSettings()
	s.PeriodType = PeriodCalendar

	assert.Equal(t, date(2025, time.January, 1), s.PeriodStart(2025))
	assert.Equal(t, date(2025, time.December, 31), s.PeriodEnd(2025))
	assert.Equal(t, 2025, s.CurrentPeriodYear(date(2025, time.March, 15)))
}

func TestPeriodBoundsLegal(t *testing.T) {
	s := legalSettings()

	assert.Equal(t, date(2025, time.June, 1), s.PeriodStart(2025))
	assert.Equal(t, date(2026, time.May, 31), s.PeriodEnd(2025))

	// May belongs to the previous period year, June to the current one.
	assert.Equal(t, 2024, s.CurrentPeriodYear(date(2025, time.May, 31)))
	assert.Equal(t, 2025, s.CurrentPeriodYear(date(2025, time.June, 1)))
	assert.Equal(t, 2025, s.CurrentPeriodYear(date(2025, time.December, 25)))
}

func TestPeriodBoundsCustom(t *testing.T) {
	s := legalSettings()
	s.PeriodType = PeriodCustom
	s.CustomPeriodStartDay = 1
	s.CustomPeriodStartMon = 4

	assert.Equal(t, date(2025, time.April, 1), s.PeriodStart(2025))
	assert.Equal(t, date(2026, time.March, 31), s.PeriodEnd(2025))
	assert.Equal(t, 2024, s.CurrentPeriodYear(date(2025, time.March, 31)))
	assert.Equal(t, 2025, s.CurrentPeriodYear(date(2025, time.April, 1)))
}

func TestPeriodCustomClampsInvalidDay(t *testing.T) {
	s := legalSettings()
	s.PeriodType = PeriodCustom
	s.CustomPeriodStartDay = 30
	s.CustomPeriodStartMon = 2

	// Feb 30 does not exist; the start clamps to the last day of
	// February, leap years included.
	assert.Equal(t, date(2025, time.February, 28), s.PeriodStart(2025))
	assert.Equal(t, date(2028, time.February, 29), s.PeriodStart(2028))
	assert.Equal(t, date(2026, time.February, 27), s.PeriodEnd(2025))
}

func TestCarryoverExpiryDate(t *testing.T) {
	s := legalSettings()
	s.CPCarryoverDeadlineMonths = 3

	// Legal period 2024 ends May 31 2025; +3 months = Aug 31 2025.
	assert.Equal(t, date(2025, time.August, 31), s.CarryoverExpiryDate(2024, CodeCP))

	// End-of-month clamp: May 31 + 1 month lands on Jun 30.
	s.CPCarryoverDeadlineMonths = 1
	assert.Equal(t, date(2025, time.June, 30), s.CarryoverExpiryDate(2024, CodeCP))

	// Month overflow across the year boundary.
	s.CPCarryoverDeadlineMonths = 8
	assert.Equal(t, date(2026, time.January, 31), s.CarryoverExpiryDate(2024, CodeCP))
}

func TestCarryoverExpiryDateUsesRTTDeadline(t *testing.T) {
	s := legalSettings()
	s.CPCarryoverDeadlineMonths = 3
	s.RTTCarryoverDeadlineMonths = 1

	assert.Equal(t, date(2025, time.June, 30), s.CarryoverExpiryDate(2024, CodeRTT))
}

func TestMaxCarryover(t *testing.T) {
	s := legalSettings()
	s.CPCarryoverEnabled = true
	s.CPCarryoverMaxDays = decimal.RequireFromString("5")
	s.RTTCarryoverEnabled = false

	assert.True(t, s.MaxCarryover(CodeCP).Equal(decimal.RequireFromString("5")))
	assert.True(t, s.MaxCarryover(CodeRTT).IsZero())

	s.CPCarryoverEnabled = false
	assert.True(t, s.MaxCarryover(CodeCP).IsZero())
}

func TestPeriodLabel(t *testing.T) {
	s := legalSettings()
	require.Equal(t, "Juin 2025 - Mai 2026", s.PeriodLabel(2025))

	s.PeriodType = PeriodCalendar
	require.Equal(t, "Année 2025", s.PeriodLabel(2025))
}
