package midi

import "errors"

var (
	errNoMIDI = errors.New("MIDI is not available in this build")

	// ErrNoPort is returned when no port matches the requested name.
	ErrNoPort = errors.New("no matching MIDI port")
)
