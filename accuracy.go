package rhythm

import "math"

// TimingSample describes how close an instant is to the pulse. Phase is the
// time elapsed since the previous sub-beat, as a fraction of a sub-beat, in
// [0, 1): it grows towards the next sub-beat. This is 1 minus the time left
// until the next sub-beat, so Late is true in the second half of a sub-beat.
// Accuracy is Accuracy(Phase), in [0, 1], and reads the same either way as
// the curve is symmetric.
type TimingSample struct {
	Phase    float64
	Accuracy float64
}

// Accuracy maps a phase in [0, 1) to a score in [0, 1]: 1 on a pulse, falling
// to 0 exactly halfway between two pulses. The curve is 1 - sqrt(sin(phase*π)),
// which is steep near the pulse and flat in the middle, so small timing errors
// cost more than they would on a linear scale. Phases outside [0, 1] are
// clamped and NaN counts as 0.
func Accuracy(phase float64) float64 {
	return 1 - math.Sqrt(math.Sin(clamp01(phase)*math.Pi))
}

// SampleAt returns the TimingSample of the given phase.
func SampleAt(phase float64) TimingSample {
	phase = clamp01(phase)
	return TimingSample{Phase: phase, Accuracy: Accuracy(phase)}
}

// Late reports whether the sample is closer to the next pulse than to the
// previous one.
func (s TimingSample) Late() bool {
	return s.Phase >= 0.5
}

func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x), x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
