package events

import (
	"math"
	"testing"
	"time"

	"github.com/dhima/change-monitor/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestCutoff_ThirtyDaysReturnsStartOfWindow(t *testing.T) {
	// Arrange
	now := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	// Act
	cutoff := Cutoff(now, 30)

	// Assert
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestCutoff_NowIsNotUTCComputesInUTC(t *testing.T) {
	// Arrange
	now := time.Date(2024, 1, 31, 5, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))

	// Act
	cutoff := Cutoff(now, 30)

	// Assert
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestCutoff_HugeWindowStaysInThePast(t *testing.T) {
	now := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	earliest := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, days := range []int{MaxWindowDays, MaxWindowDays + 1, math.MaxInt32, math.MaxInt} {
		// Act
		cutoff := Cutoff(now, days)

		// Assert
		assert.True(t, cutoff.Before(earliest), "days=%d gave cutoff %v", days, cutoff)
	}
}

func TestWithinWindow_AroundBoundaryLowerEdgeIsInclusive(t *testing.T) {
	now := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{name: "exactly at cutoff", ts: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "one millisecond older", ts: time.Date(2023, 12, 31, 23, 59, 59, 999000000, time.UTC), want: false},
		{name: "one microsecond older", ts: time.Date(2023, 12, 31, 23, 59, 59, 999999000, time.UTC), want: false},
		{name: "at now", ts: now, want: true},
		{name: "in the future", ts: now.Add(time.Hour), want: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got := WithinWindow(models.ChangeEvent{Timestamp: tc.ts}, now, 30)

			// Assert
			assert.Equal(t, tc.want, got)
		})
	}
}
