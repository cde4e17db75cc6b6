package progress

import (
	"math"

	"github.com/abhisek/examcoach/internal/store"
)

// Status is the practice state shown for a weak topic.
type Status string

const (
	StatusNotStarted    Status = "Not Started"
	StatusNeedsPractice Status = "Needs Practice"
	StatusImproving     Status = "Improving"
)

// ImprovingThreshold is the minimum accuracy, in percent, for a topic to
// count as improving.
const ImprovingThreshold = 70.0

// Accuracy returns correct/attempts as a percentage rounded to one
// decimal place. A nil or empty record has accuracy 0.
func Accuracy(r *store.ProgressRecord) float64 {
	if r == nil || r.Attempts <= 0 {
		return 0
	}
	pct := float64(r.CorrectAttempts) / float64(r.Attempts) * 100
	// Halves round to even: 1/16 is 6.2, not 6.3.
	return math.RoundToEven(pct*10) / 10
}

// StatusOf derives the dashboard status for a topic's record. A nil
// record means the topic has not been practised yet.
func StatusOf(r *store.ProgressRecord) Status {
	if r == nil {
		return StatusNotStarted
	}
	if Accuracy(r) >= ImprovingThreshold {
		return StatusImproving
	}
	return StatusNeedsPractice
}
