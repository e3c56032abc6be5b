package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCountRequestDays(t *testing.T) {
	// Mon Jun 2 2025 .. Fri Jun 6 2025.
	mon := date(2025, time.June, 2)
	fri := date(2025, time.June, 6)

	tests := []struct {
		name       string
		start, end time.Time
		startHalf  bool
		endHalf    bool
		want       string
	}{
		{"full week", mon, fri, false, false, "5"},
		{"single day", mon, mon, false, false, "1"},
		{"single half day", mon, mon, true, false, "0.5"},
		{"half start and end", mon, fri, true, true, "4"},
		{"spans weekend", mon, date(2025, time.June, 10), false, false, "7"},
		{"weekend only", date(2025, time.June, 7), date(2025, time.June, 8), false, false, "0"},
		{"half flag on weekend ignored", date(2025, time.June, 7), date(2025, time.June, 9), true, false, "1"},
		{"end before start", fri, mon, false, false, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountRequestDays(tt.start, tt.end, tt.startHalf, tt.endHalf)
			assert.True(t, got.Equal(d(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestOverlaps(t *testing.T) {
	a1, a2 := date(2025, time.June, 2), date(2025, time.June, 6)

	assert.True(t, Overlaps(a1, a2, date(2025, time.June, 6), date(2025, time.June, 10)))
	assert.True(t, Overlaps(a1, a2, date(2025, time.May, 30), date(2025, time.June, 2)))
	assert.False(t, Overlaps(a1, a2, date(2025, time.June, 7), date(2025, time.June, 10)))
}
