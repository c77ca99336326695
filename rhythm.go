// Package rhythm contains the data types of the rhythm engine: beat
// coordinates, the tempo that spaces them in time, sparse patterns addressed by
// coordinate, and the accuracy curve used to score player input against the
// pulse. The scheduler that turns a Tempo into a stream of Coordinates lives in
// package beat.
package rhythm

import (
	"fmt"
	"math"
)

type (
	// Coordinate addresses a single sub-beat of a play session. All fields are
	// zero-based: Beat is in [0, BeatsPerBar), Sub is in [0, SubsPerBeat) and
	// Bar grows without bound as the session goes on.
	Coordinate struct {
		Beat int
		Sub  int
		Bar  int
	}

	// Tempo is the fixed timing of a play session. BPM is the number of beats
	// per minute, BeatsPerBar the number of beats in each bar and SubsPerBeat
	// the number of sub-beats each beat is divided into. Sub-beats are the
	// smallest schedulable unit.
	Tempo struct {
		BPM         float64
		BeatsPerBar int
		SubsPerBeat int
	}
)

// At returns the Coordinate of the given bar, beat and sub-beat. It reads
// better than a struct literal when targeting one-shot listeners, e.g.
// At(8, 1, 0) for the second beat of the ninth bar.
func At(bar, beat, sub int) Coordinate {
	return Coordinate{Beat: beat, Sub: sub, Bar: bar}
}

// Less reports whether c comes before o in playback order.
func (c Coordinate) Less(o Coordinate) bool {
	if c.Bar != o.Bar {
		return c.Bar < o.Bar
	}
	if c.Beat != o.Beat {
		return c.Beat < o.Beat
	}
	return c.Sub < o.Sub
}

// String returns the coordinate as one-based "bar.beat.sub", the way
// musicians count.
func (c Coordinate) String() string {
	return fmt.Sprintf("%d.%d.%d", c.Bar+1, c.Beat+1, c.Sub+1)
}

// SubDelta returns the length of one sub-beat in seconds. If BPM or
// SubsPerBeat is not a positive finite number, SubDelta falls back to one
// second so that a scheduler never ends up with a zero-width step.
func (t Tempo) SubDelta() float64 {
	if !(t.BPM > 0) || math.IsInf(t.BPM, 1) || t.SubsPerBeat <= 0 {
		return 1
	}
	return 60 / (t.BPM * float64(t.SubsPerBeat))
}

// Beats returns BeatsPerBar, or 1 if BeatsPerBar is not positive.
func (t Tempo) Beats() int {
	if t.BeatsPerBar <= 0 {
		return 1
	}
	return t.BeatsPerBar
}

// Subs returns SubsPerBeat, or 1 if SubsPerBeat is not positive.
func (t Tempo) Subs() int {
	if t.SubsPerBeat <= 0 {
		return 1
	}
	return t.SubsPerBeat
}

// Steps returns the number of sub-beats in one bar.
func (t Tempo) Steps() int {
	return t.Beats() * t.Subs()
}

// Advance returns the coordinate that follows c, wrapping sub-beats into beats
// and beats into bars.
func (t Tempo) Advance(c Coordinate) Coordinate {
	c.Sub++
	if c.Sub == t.Subs() {
		c.Sub = 0
		c.Beat++
		if c.Beat == t.Beats() {
			c.Bar++
		}
		c.Beat %= t.Beats()
	}
	return c
}

// Coordinate returns the coordinate of the n:th sub-beat of a session, n
// counting from zero. Negative n is treated as zero.
func (t Tempo) Coordinate(n int) Coordinate {
	if n < 0 {
		n = 0
	}
	subs, beats := t.Subs(), t.Beats()
	return Coordinate{
		Sub:  n % subs,
		Beat: (n / subs) % beats,
		Bar:  n / (subs * beats),
	}
}

// Ordinal is the inverse of Coordinate: it returns how many sub-beats precede
// c in a session.
func (t Tempo) Ordinal(c Coordinate) int {
	return (c.Bar*t.Beats()+c.Beat)*t.Subs() + c.Sub
}
