package leave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPriorBalance(f *fakeStore, typeID, initial, used string) {
	key := balanceKey("u-1", typeID, 2024)
	f.balances[key] = &Balance{
		ID: key, UserID: "u-1", LeaveTypeID: typeID, Year: 2024,
		InitialBalance: d(initial), Used: d(used),
	}
}

func TestProcessRolloversCapsCarryover(t *testing.T) {
	f := newFakeStore()
	seedPriorBalance(f, "lt-cp", "25", "18") // 7 remaining, cap 5

	now := date(2025, time.June, 2)
	summary, err := ProcessRollovers(context.Background(), f, "co-1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.True(t, summary.DaysLost.Equal(d("2")), "got %s", summary.DaysLost)

	b, err := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	require.NoError(t, err)
	assert.True(t, b.CarriedOver.Equal(d("5")))
	assert.True(t, b.CarriedOverUsed.IsZero())
	require.NotNil(t, b.CarriedOverExpiresAt)
	// Period 2024 ends May 31 2025, CP deadline 3 months.
	assert.Equal(t, date(2025, time.August, 31), *b.CarriedOverExpiresAt)
}

func TestProcessRolloversIgnoresPending(t *testing.T) {
	f := newFakeStore()
	key := balanceKey("u-1", "lt-cp", 2024)
	f.balances[key] = &Balance{
		ID: key, UserID: "u-1", LeaveTypeID: "lt-cp", Year: 2024,
		InitialBalance: d("25"), Used: d("22"), Pending: d("3"),
	}

	_, err := ProcessRollovers(context.Background(), f, "co-1", date(2025, time.June, 2))
	require.NoError(t, err)

	// 3 remaining despite 3 pending: pending does not shrink carryover.
	b, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b.CarriedOver.Equal(d("3")))
}

func TestProcessRolloversRerunSkips(t *testing.T) {
	f := newFakeStore()
	seedPriorBalance(f, "lt-cp", "25", "20")

	_, err := ProcessRollovers(context.Background(), f, "co-1", date(2025, time.June, 2))
	require.NoError(t, err)

	// Consume some carryover, then re-run: the marker protects the row.
	b, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	b.CarriedOverUsed = d("2")
	f.balances[b.ID] = &b

	summary, err := ProcessRollovers(context.Background(), f, "co-1", date(2025, time.June, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)

	b2, _ := f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.True(t, b2.CarriedOverUsed.Equal(d("2")))
}

func TestProcessRolloversRTTDisabled(t *testing.T) {
	f := newFakeStore()
	seedPriorBalance(f, "lt-rtt", "10", "4") // 6 remaining, RTT carryover off

	summary, err := ProcessRollovers(context.Background(), f, "co-1", date(2025, time.June, 2))
	require.NoError(t, err)
	assert.True(t, summary.DaysLost.Equal(d("6")), "got %s", summary.DaysLost)

	b, err := f.GetBalance(context.Background(), "u-1", "lt-rtt", 2025)
	require.NoError(t, err)
	assert.True(t, b.CarriedOver.IsZero())
	assert.Nil(t, b.CarriedOverExpiresAt)
}

func TestProcessRolloversNothingRemaining(t *testing.T) {
	f := newFakeStore()
	seedPriorBalance(f, "lt-cp", "25", "25")

	summary, err := ProcessRollovers(context.Background(), f, "co-1", date(2025, time.June, 2))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	_, err = f.GetBalance(context.Background(), "u-1", "lt-cp", 2025)
	assert.ErrorIs(t, err, ErrBalanceNotFound)
}
