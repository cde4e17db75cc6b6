package gamification

import "time"

// Streak is the result of a streak computation.
type Streak struct {
	Current int
	Longest int
}

// ComputeStreak derives the streak after activity on today, given the
// previous activity date (nil if there was none) and the stored counters.
//
//   - no previous activity: 1
//   - same day: unchanged
//   - next day: current + 1
//   - any other gap, including a previous date after today: 1
//
// Longest never drops below the new current streak.
func ComputeStreak(last *time.Time, today time.Time, current, longest int) Streak {
	next := 1
	if last != nil {
		switch DaysBetween(*last, today) {
		case 0:
			next = current
		case 1:
			next = current + 1
		}
	}
	return Streak{Current: next, Longest: max(longest, next)}
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
// The date is taken in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from one date to another.
// Negative when to is before from.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)) / (24 * time.Hour))
}
