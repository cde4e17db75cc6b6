package gamification

import (
	"sync"
	"time"
)

// Clock supplies the current time. Injected so tests control "today".
type Clock interface {
	Now() time.Time

	// Today returns the current calendar date as midnight UTC.
	Today() time.Time
}

// SystemClock reads the wall clock and derives dates in Location.
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (c SystemClock) Today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(time.Now().In(loc))
}

// FixedClock is a manually driven Clock for tests and backfills.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock returns a clock frozen at t.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t}
}

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Today() time.Time {
	return DateOf(c.Now())
}

// AdvanceDays moves the clock by n calendar days (n may be negative).
func (c *FixedClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.AddDate(0, 0, n)
}
