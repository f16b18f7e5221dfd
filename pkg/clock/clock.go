package clock

import (
	"sync"
	"time"
)

// Clock is the time source for retention windows and prune schedules.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock, always in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is pinned to one instant.
type FixedClock struct{ t time.Time }

func NewFixed(t time.Time) FixedClock { return FixedClock{t: t} }

func (f FixedClock) Now() time.Time { return f.t }

// ManualClock only moves when told to. Safe for concurrent use.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewManual(start time.Time) *ManualClock {
	return &ManualClock{t: start}
}

func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

// Advance moves the clock forward by d and returns the new time.
func (m *ManualClock) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.Add(d)
	return m.t
}

// AdvanceDays moves the clock by whole calendar days.
func (m *ManualClock) AdvanceDays(days int) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.t = m.t.AddDate(0, 0, days)
	return m.t
}

// OrReal returns c, or RealClock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return RealClock{}
	}
	return c
}
