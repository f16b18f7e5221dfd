package events

import (
	"time"

	"github.com/dhima/change-monitor/internal/models"
)

// MaxWindowDays caps a retention window at about ten thousand years, wider
// than any timestamp a record can carry. Larger windows are treated as this.
const MaxWindowDays = 3_650_000

// Cutoff returns the oldest timestamp still inside a window of days ending at now.
// Calendar days are taken in UTC, where every day is exactly 24 hours.
func Cutoff(now time.Time, days int) time.Time {
	if days > MaxWindowDays {
		days = MaxWindowDays
	}
	return now.UTC().AddDate(0, 0, -days)
}

// WithinWindow reports whether the event falls inside the retention window.
// The lower edge is inclusive.
func WithinWindow(event models.ChangeEvent, now time.Time, days int) bool {
	return !event.Timestamp.Before(Cutoff(now, days))
}
