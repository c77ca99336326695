// Package score turns player input into a score: it judges each hit against
// the pulse of a beat.Beat, aggregates the accuracies of the accepted hits and
// rates the final result.
package score

import (
	"github.com/viterin/vek"
)

// Scorecard records the accuracy of every accepted hit of a play session.
// The zero value is an empty scorecard ready to use.
type Scorecard struct {
	accuracies []float64
}

// Add records one accuracy.
func (s *Scorecard) Add(accuracy float64) {
	s.accuracies = append(s.accuracies, accuracy)
}

// Reset empties the scorecard.
func (s *Scorecard) Reset() {
	s.accuracies = s.accuracies[:0]
}

// Len returns the number of recorded accuracies.
func (s Scorecard) Len() int {
	return len(s.accuracies)
}

// Total returns the sum of the recorded accuracies.
func (s Scorecard) Total() float64 {
	if len(s.accuracies) == 0 {
		return 0
	}
	return vek.Sum(s.accuracies)
}

// Mean returns the average accuracy, or 0 if nothing was recorded.
func (s Scorecard) Mean() float64 {
	if len(s.accuracies) == 0 {
		return 0
	}
	return vek.Mean(s.accuracies)
}

// Best returns the highest accuracy, or 0 if nothing was recorded.
func (s Scorecard) Best() float64 {
	if len(s.accuracies) == 0 {
		return 0
	}
	return vek.Max(s.accuracies)
}

// Worst returns the lowest accuracy, or 0 if nothing was recorded.
func (s Scorecard) Worst() float64 {
	if len(s.accuracies) == 0 {
		return 0
	}
	return vek.Min(s.accuracies)
}

// Above returns how many recorded accuracies are at least threshold.
func (s Scorecard) Above(threshold float64) int {
	if len(s.accuracies) == 0 {
		return 0
	}
	return vek.Count(vek.GteNumber(s.accuracies, threshold))
}

// Normalized returns the total divided by the number of hits that were
// expected, clamped to [0, 1]. With nothing expected, the score is 0.
func (s Scorecard) Normalized(expected int) float64 {
	if expected <= 0 {
		return 0
	}
	return min(max(s.Total()/float64(expected), 0), 1)
}
