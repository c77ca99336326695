package score

import (
	"slices"
	"sync"

	"github.com/dalps/rhythm"
)

type (
	// Timing is the part of beat.Beat a Judge needs.
	Timing interface {
		Snapshot() (rhythm.Coordinate, rhythm.TimingSample)
		Tempo() rhythm.Tempo
	}

	// Judge scores hits against the beats of each bar the player is supposed
	// to hit. A hit is accepted when the pulse closest to it falls on a
	// target beat and its accuracy reaches the threshold.
	Judge struct {
		timing    Timing
		targets   []int
		threshold float64
		goal      int

		mu   sync.Mutex
		card Scorecard
	}

	// Hit is the verdict on a single hit.
	Hit struct {
		Coordinate rhythm.Coordinate   // the pulse closest to the hit
		Sample     rhythm.TimingSample // timing of the hit
		Accepted   bool
	}
)

const (
	// DefaultThreshold is the accuracy a hit needs to be accepted.
	DefaultThreshold = 0.5
	// DefaultGoal is the number of accepted hits a player needs in a
	// practice round.
	DefaultGoal = 8
)

// NewJudge returns a Judge accepting hits on the given beats of each bar
// (zero-based), with accuracy of at least threshold, until goal hits are
// accepted. A non-positive threshold or goal means the default.
func NewJudge(t Timing, targets []int, threshold float64, goal int) *Judge {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if goal <= 0 {
		goal = DefaultGoal
	}
	return &Judge{timing: t, targets: slices.Clone(targets), threshold: threshold, goal: goal}
}

// Hit judges a hit made now. ok is false once the goal has been reached;
// the hit is then neither judged nor recorded.
func (j *Judge) Hit() (hit Hit, ok bool) {
	c, s := j.timing.Snapshot()
	if s.Late() {
		c = j.timing.Tempo().Advance(c)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.card.Len() >= j.goal {
		return Hit{Coordinate: c, Sample: s}, false
	}
	hit = Hit{Coordinate: c, Sample: s}
	if slices.Contains(j.targets, c.Beat) && s.Accuracy >= j.threshold {
		hit.Accepted = true
		j.card.Add(s.Accuracy)
	}
	return hit, true
}

// Left returns how many hits still need to be accepted.
func (j *Judge) Left() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return max(j.goal-j.card.Len(), 0)
}

// Done reports whether the goal has been reached.
func (j *Judge) Done() bool {
	return j.Left() == 0
}

// Score returns the normalized score so far.
func (j *Judge) Score() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.card.Normalized(j.goal)
}

// Scorecard returns a copy of the accuracies accepted so far.
func (j *Judge) Scorecard() Scorecard {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Scorecard{accuracies: slices.Clone(j.card.accuracies)}
}

// Reset forgets all accepted hits.
func (j *Judge) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.card.Reset()
}
