package rhythm

// Clock is a monotonic time source, in seconds. The scheduler anchors the
// pulse to a Clock, so it should be the clock of whatever device makes the
// pulse audible.
type Clock interface {
	Now() float64
}

// AudioContext is a Clock backed by an audio device that has to be released
// after use.
type AudioContext interface {
	Clock
	Close() error
}
