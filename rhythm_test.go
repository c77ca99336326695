package rhythm_test

import (
	"math"
	"testing"

	"github.com/dalps/rhythm"
)

func TestSubDelta(t *testing.T) {
	tests := []struct {
		name  string
		tempo rhythm.Tempo
		want  float64
	}{
		{"120bpm", rhythm.Tempo{BPM: 120, BeatsPerBar: 4, SubsPerBeat: 1}, 0.5},
		{"120bpm eighths", rhythm.Tempo{BPM: 120, BeatsPerBar: 4, SubsPerBeat: 2}, 0.25},
		{"60bpm", rhythm.Tempo{BPM: 60, BeatsPerBar: 3, SubsPerBeat: 1}, 1},
		{"zero bpm", rhythm.Tempo{BPM: 0, BeatsPerBar: 4, SubsPerBeat: 1}, 1},
		{"negative bpm", rhythm.Tempo{BPM: -10, BeatsPerBar: 4, SubsPerBeat: 1}, 1},
		{"nan bpm", rhythm.Tempo{BPM: math.NaN(), BeatsPerBar: 4, SubsPerBeat: 1}, 1},
		{"inf bpm", rhythm.Tempo{BPM: math.Inf(1), BeatsPerBar: 4, SubsPerBeat: 1}, 1},
		{"zero subs", rhythm.Tempo{BPM: 120, BeatsPerBar: 4, SubsPerBeat: 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tempo.SubDelta(); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("SubDelta() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAdvanceWrapsAround(t *testing.T) {
	tempo := rhythm.Tempo{BPM: 120, BeatsPerBar: 4, SubsPerBeat: 1}
	var got []rhythm.Coordinate
	c := rhythm.Coordinate{}
	for i := 0; i < 5; i++ {
		c = tempo.Advance(c)
		got = append(got, c)
	}
	want := []rhythm.Coordinate{rhythm.At(0, 1, 0), rhythm.At(0, 2, 0), rhythm.At(0, 3, 0), rhythm.At(1, 0, 0), rhythm.At(1, 1, 0)}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("advance %d: got %v, want %v", i+1, got[i], want[i])
		}
	}
}

func TestAdvanceSubdivided(t *testing.T) {
	tempo := rhythm.Tempo{BPM: 90, BeatsPerBar: 3, SubsPerBeat: 2}
	c := rhythm.At(0, 2, 1)
	if got, want := tempo.Advance(c), rhythm.At(1, 0, 0); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := tempo.Advance(rhythm.At(4, 1, 0)), rhythm.At(4, 1, 1); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCoordinateOrdinalRoundTrip(t *testing.T) {
	tempo := rhythm.Tempo{BPM: 100, BeatsPerBar: 3, SubsPerBeat: 4}
	c := rhythm.Coordinate{}
	for n := 0; n < 100; n++ {
		if got := tempo.Coordinate(n); got != c {
			t.Fatalf("Coordinate(%d) = %v, want %v", n, got, c)
		}
		if got := tempo.Ordinal(c); got != n {
			t.Fatalf("Ordinal(%v) = %d, want %d", c, got, n)
		}
		c = tempo.Advance(c)
	}
	if got := tempo.Coordinate(-3); got != (rhythm.Coordinate{}) {
		t.Fatalf("negative ordinal should map to the first coordinate, got %v", got)
	}
}

func TestNonPositiveMeterIsNormalized(t *testing.T) {
	tempo := rhythm.Tempo{BPM: 120, BeatsPerBar: 0, SubsPerBeat: -2}
	if tempo.Steps() != 1 {
		t.Fatalf("expected 1 step per bar, got %d", tempo.Steps())
	}
	if got, want := tempo.Advance(rhythm.Coordinate{}), rhythm.At(1, 0, 0); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCoordinateLessAndString(t *testing.T) {
	a, b := rhythm.At(1, 3, 0), rhythm.At(2, 0, 0)
	if !a.Less(b) || b.Less(a) || a.Less(a) {
		t.Fatalf("unexpected ordering between %v and %v", a, b)
	}
	if !rhythm.At(1, 3, 0).Less(rhythm.At(1, 3, 1)) {
		t.Fatalf("sub-beats should order within a beat")
	}
	if got := rhythm.At(8, 1, 0).String(); got != "9.2.1" {
		t.Fatalf("String() = %q, want %q", got, "9.2.1")
	}
}
